package ai

import (
	"encoding/json"
	"strings"

	"github.com/dashmart-ai/dashmart/pkg/types"
)

type IntentResult struct {
	Intents     []types.ChatIntent `json:"intents"`
	SearchTerms string             `json:"search_terms"`
}

// ParseIntentResult 解析意图分类模型的输出。任何解析失败都回退到
// intent=[product]，searchTerms=原始消息，不向上抛错。
func ParseIntentResult(raw, originalMessage string) IntentResult {
	fallback := IntentResult{
		Intents:     []types.ChatIntent{types.INTENT_PRODUCT},
		SearchTerms: originalMessage,
	}

	raw = strings.TrimSpace(raw)
	// 容忍模型包一层 markdown code fence
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var parsed IntentResult
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return fallback
	}

	var intents []types.ChatIntent
	for _, it := range parsed.Intents {
		if types.KnownChatIntents[types.ChatIntent(strings.ToLower(string(it)))] {
			intents = append(intents, types.ChatIntent(strings.ToLower(string(it))))
		}
	}
	if len(intents) == 0 {
		return fallback
	}

	result := IntentResult{
		Intents:     intents,
		SearchTerms: strings.TrimSpace(parsed.SearchTerms),
	}
	if result.SearchTerms == "" {
		result.SearchTerms = originalMessage
	}
	return result
}

// IsGreetingOnly greeting 为唯一意图时跳过所有查库。
func (r IntentResult) IsGreetingOnly() bool {
	return len(r.Intents) == 1 && r.Intents[0] == types.INTENT_GREETING
}

func (r IntentResult) Has(intent types.ChatIntent) bool {
	for _, it := range r.Intents {
		if it == intent {
			return true
		}
	}
	return false
}
