package types

// ChatRequestMode 控制本轮走哪条回答路径。
type ChatRequestMode string

const (
	CHAT_REQUEST_MODE_AUTO ChatRequestMode = "auto" // RAG first, fallback on no answer
	CHAT_REQUEST_MODE_CHAT ChatRequestMode = "chat" // fallback only
	CHAT_REQUEST_MODE_RAG  ChatRequestMode = "rag"  // RAG only
)

func ChatRequestModeFromString(s string) ChatRequestMode {
	switch ChatRequestMode(s) {
	case CHAT_REQUEST_MODE_CHAT, CHAT_REQUEST_MODE_RAG:
		return ChatRequestMode(s)
	default:
		return CHAT_REQUEST_MODE_AUTO
	}
}

// ShortCircuitReason RAG 在触达模型前终止的原因。
type ShortCircuitReason string

const (
	REASON_DOCUMENT_NOT_AVAILABLE ShortCircuitReason = "DOCUMENT_NOT_AVAILABLE"
	REASON_NO_ENABLED_DOCUMENTS   ShortCircuitReason = "NO_ENABLED_DOCUMENTS"
	REASON_NO_MATCHES             ShortCircuitReason = "NO_MATCHES"
)

// ChatIntent 兜底路径意图词表，解析失败时回退到 product。
type ChatIntent string

const (
	INTENT_PRODUCT  ChatIntent = "product"
	INTENT_ORDER    ChatIntent = "order"
	INTENT_CATEGORY ChatIntent = "category"
	INTENT_OFFER    ChatIntent = "offer"
	INTENT_HELP     ChatIntent = "help"
	INTENT_GREETING ChatIntent = "greeting"
)

var KnownChatIntents = map[ChatIntent]bool{
	INTENT_PRODUCT:  true,
	INTENT_ORDER:    true,
	INTENT_CATEGORY: true,
	INTENT_OFFER:    true,
	INTENT_HELP:     true,
	INTENT_GREETING: true,
}

const (
	USER_ROLE_SYSTEM    = "system"
	USER_ROLE_USER      = "user"
	USER_ROLE_ASSISTANT = "assistant"
)

// MessageContext 发送给模型的单条上下文。
type MessageContext struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RetrievedChunk 检索结果，score 越大越相关。
type RetrievedChunk struct {
	ChunkID       string  `json:"chunk_id"`
	DocumentID    string  `json:"document_id"`
	DocumentTitle string  `json:"document_title"`
	ChunkIndex    int     `json:"chunk_index"`
	Page          int     `json:"page"`
	Content       string  `json:"content"`
	Score         float32 `json:"score"`
}

// ChatSource 返回给前端的引用来源。
type ChatSource struct {
	DocumentID    string  `json:"document_id"`
	DocumentTitle string  `json:"document_title"`
	ChunkIndex    int     `json:"chunk_index"`
	Page          int     `json:"page,omitempty"`
	Score         float32 `json:"score"`
}

// ProductCard 兜底回复里附带的商品卡片，客户端按卡片渲染而不是解析正文。
type ProductCard struct {
	ProductID  string `json:"product_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	ImageURL   string `json:"image_url,omitempty"`
	InStock    bool   `json:"in_stock"`
}
