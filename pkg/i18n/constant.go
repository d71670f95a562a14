package i18n

var ALLOW_LANG = map[string]bool{
	"en":    true,
	"zh-CN": true,
}

const DEFAULT_LANG = "en"

const (
	ERROR_INTERNAL          = "error.internal"
	ERROR_NOT_FOUND         = "error.notfound"
	ERROR_INVALIDARGUMENT   = "error.invalidargument"
	ERROR_PERMISSION_DENIED = "error.permission.denied"
	ERROR_UNAUTHORIZED      = "error.unauthorized"
	ERROR_FORBIDDEN         = "error.forbidden"
	ERROR_TOO_MANY_REQUESTS = "error.tooManyRequests"
	ERROR_MORE_TAHN_MAX     = "error.moreThanMax"

	ERROR_FILE_UNSUPPORTED  = "error.file.unsupported"
	ERROR_DOCUMENT_EMPTY    = "error.document.empty"
	ERROR_DOCUMENT_NOTREADY = "error.document.notready"

	ERROR_AI_UNAVAILABLE    = "error.ai.unavailable"
	ERROR_AI_TIMEOUT        = "error.ai.timeout"
	ERROR_AI_RATE_LIMITED   = "error.ai.ratelimited"
	ERROR_AI_NOT_CONFIGURED = "error.ai.notconfigured"

	ERROR_CONVERSATION_NOT_FOUND = "error.conversation.notfound"

	// user-facing chat replies used when a provider call fails mid-turn
	CHAT_ERROR_CONNECTIVITY = "chat.error.connectivity"
	CHAT_ERROR_LATENCY      = "chat.error.latency"
	CHAT_ERROR_RATE_LIMIT   = "chat.error.ratelimit"
	CHAT_ERROR_GENERIC      = "chat.error.generic"
)
