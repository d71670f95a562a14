package ai

import (
	"strings"

	"github.com/dashmart-ai/dashmart/pkg/utils"
)

// noAnswerPhrases 判定“无答案”的短语表，匹配前先做引号归一与小写处理。
// 短语匹配是启发式判断，改写过的拒答可能漏判。
var noAnswerPhrases = []string{
	strings.ToLower(NO_ANSWER_PHRASE),
	NO_ANSWER_PHRASE_CN,
	"i don't have that information",
	"i do not have that information",
	"i don't have this information",
	"i couldn't find this in the support documents",
	"i could not find this in the support documents",
	"the support documents do not contain",
	"no relevant information in the support documents",
	"支持文档中没有",
	"文档中没有找到",
}

// IsNoAnswer reports whether generated text should be treated as a refusal.
func IsNoAnswer(text string) bool {
	normalized := strings.ToLower(strings.TrimSpace(utils.NormalizeQuotes(text)))
	if normalized == "" {
		return true
	}
	for _, phrase := range noAnswerPhrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}
