package gateway

import (
	"fmt"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Kind names a gateway backend in round configuration.
type Kind string

const (
	KindMock      Kind = "mock"
	KindAnthropic Kind = "anthropic"
	KindOpenAI    Kind = "openai"
	KindCopilot   Kind = "copilot"
)

// Create builds a gateway from a configured kind and its raw parameter map.
func Create(kind Kind, params map[string]any) (ModelGateway, error) {
	switch kind {
	case KindMock:
		var v *struct {
			Replies     map[string]string `mapstructure:"replies"`
			LatencyMs   int64             `mapstructure:"latency_ms"`
			CostPerCall float64           `mapstructure:"cost_per_call"`
		}

		if err := mapstructure.Decode(params, &v); err != nil {
			return nil, err
		}

		cfg := MockConfig{}
		if v != nil {
			cfg.Replies = v.Replies
			cfg.Latency = time.Duration(v.LatencyMs) * time.Millisecond
			cfg.CostPerCall = v.CostPerCall
		}
		return NewMock(cfg), nil
	case KindAnthropic:
		var v *struct {
			APIKey string `mapstructure:"api_key"`
		}

		if err := mapstructure.Decode(params, &v); err != nil {
			return nil, err
		}

		apiKey := ""
		if v != nil {
			apiKey = v.APIKey
		}
		return NewAnthropic(apiKey)
	case KindOpenAI:
		var v *struct {
			APIKey string `mapstructure:"api_key"`
		}

		if err := mapstructure.Decode(params, &v); err != nil {
			return nil, err
		}

		apiKey := ""
		if v != nil {
			apiKey = v.APIKey
		}
		return NewOpenAI(apiKey)
	case KindCopilot:
		return NewCopilot(), nil
	default:
		return nil, fmt.Errorf("%q is not a valid gateway kind", kind)
	}
}
