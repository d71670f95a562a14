package srv

import (
	"github.com/dashmart-ai/dashmart/pkg/ai"
	"github.com/dashmart-ai/dashmart/pkg/socket/firetower"
)

type Srv struct {
	ai    ai.Driver
	tower *Tower
}

type ApplyFunc func(*Srv)

func SetupSrvs(opts ...ApplyFunc) *Srv {
	s := &Srv{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AI 返回当前驱动，未配置时为 nil，调用方必须判空。
func (s *Srv) AI() ai.Driver {
	return s.ai
}

func (s *Srv) Tower() *Tower {
	return s.tower
}

func (t *Tower) Pusher() *firetower.SelfPusher[PublishData] {
	return t.pusher
}
