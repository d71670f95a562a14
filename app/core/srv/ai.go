package srv

import (
	"fmt"

	"github.com/dashmart-ai/dashmart/pkg/ai"
	"github.com/dashmart-ai/dashmart/pkg/ai/ollama"
	"github.com/dashmart-ai/dashmart/pkg/ai/openai"
)

// AIConfig 启动时一次性选择后端，不支持热切换。
type AIConfig struct {
	Driver   string       `toml:"driver"` // openai | ollama
	Token    string       `toml:"token"`
	Endpoint string       `toml:"endpoint"`
	Model    ai.ModelName `toml:"model"`
}

func (c AIConfig) Configured() bool {
	switch c.Driver {
	case openai.NAME:
		return c.Token != ""
	case ollama.NAME:
		return true
	default:
		return false
	}
}

// SetupAI 按配置实例化驱动。未配置驱动不报错，由调用链路
// 在真正需要模型时返回 not-configured。
func SetupAI(cfg AIConfig) (ai.Driver, error) {
	switch cfg.Driver {
	case openai.NAME, "":
		if cfg.Token == "" {
			return nil, nil
		}
		return openai.New(cfg.Token, cfg.Endpoint, cfg.Model), nil
	case ollama.NAME:
		return ollama.New(cfg.Endpoint, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown ai driver %q", cfg.Driver)
	}
}

func ApplyAI(cfg AIConfig) ApplyFunc {
	return func(s *Srv) {
		driver, err := SetupAI(cfg)
		if err != nil {
			panic(err)
		}
		s.ai = driver
	}
}
