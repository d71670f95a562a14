package mark

import (
	"fmt"
	"regexp"
	"strings"
)

// 触达模型前把客户消息里的联系方式替换成占位符，
// 回复落库前再还原，模型供应商侧不留真实 PII。
var (
	emailRegexp = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRegexp = regexp.MustCompile(`\+?\d[\d \-]{7,14}\d`)
)

type piiWorker struct {
	index map[string]string
	seq   int
}

func NewPIIWorker() *piiWorker {
	return &piiWorker{
		index: make(map[string]string),
	}
}

// Do 同一个 worker 可以处理多段文本，占位符全局递增不会互相覆盖。
func (s *piiWorker) Do(text string) string {
	for _, re := range []*regexp.Regexp{emailRegexp, phoneRegexp} {
		text = re.ReplaceAllStringFunc(text, func(match string) string {
			s.seq++
			placeholder := fmt.Sprintf("[contact_%d]", s.seq)
			s.index[placeholder] = match
			return placeholder
		})
	}
	return text
}

func (s *piiWorker) Undo(text string) string {
	for placeholder, origin := range s.index {
		text = strings.ReplaceAll(text, placeholder, origin)
	}
	return text
}

func (s *piiWorker) Map() map[string]string {
	return s.index
}
