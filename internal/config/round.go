// Package config loads round YAML files, the declarative description of one
// ensemble round: which models to query, through which gateways, with what
// strategy and knowledge context.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/replylabs/chorus"
	"github.com/replylabs/chorus/gateway"
	"github.com/replylabs/chorus/selection"
)

// Default values for round configuration. These are the single source of
// truth; New() references them and no other code should duplicate them.
const (
	DefaultStrategy       = selection.NameConfidence
	DefaultCallTimeoutSec = 30
	DefaultTemperature    = 0.2
	DefaultMaxTokens      = 1024

	// DefaultGatewayName is the gateways map key used for models that do
	// not name a gateway of their own.
	DefaultGatewayName = "default"
)

// ModelConfig names one model and the gateway it is reached through.
type ModelConfig struct {
	ID      string `yaml:"id"`
	Gateway string `yaml:"gateway,omitempty"`
}

// SnippetConfig is one knowledge snippet in the round's context.
type SnippetConfig struct {
	Content   string   `yaml:"content"`
	Relevance *float64 `yaml:"relevance,omitempty"`
}

// GatewayConfig describes how to construct one gateway backend.
type GatewayConfig struct {
	Kind   gateway.Kind   `yaml:"kind"`
	Params map[string]any `yaml:"params,omitempty"`
}

// RoundConfig is the top-level configuration loaded from a round YAML file.
type RoundConfig struct {
	Name           string                   `yaml:"name"`
	Models         []ModelConfig            `yaml:"models"`
	Strategy       string                   `yaml:"strategy,omitempty"`
	MinAgreement   float64                  `yaml:"min_agreement,omitempty"`
	SelfCorrection bool                     `yaml:"self_correction,omitempty"`
	CallTimeoutSec int                      `yaml:"call_timeout_sec,omitempty"`
	Temperature    *float64                 `yaml:"temperature,omitempty"`
	MaxTokens      int                      `yaml:"max_tokens,omitempty"`
	Prompt         string                   `yaml:"prompt"`
	Context        []SnippetConfig          `yaml:"context,omitempty"`
	Gateways       map[string]GatewayConfig `yaml:"gateways,omitempty"`
}

// New returns a RoundConfig with all hard-coded defaults populated.
func New() *RoundConfig {
	temp := DefaultTemperature
	return &RoundConfig{
		Strategy:       DefaultStrategy,
		CallTimeoutSec: DefaultCallTimeoutSec,
		Temperature:    &temp,
		MaxTokens:      DefaultMaxTokens,
		Gateways: map[string]GatewayConfig{
			DefaultGatewayName: {Kind: gateway.KindMock},
		},
	}
}

// Load reads and parses a round YAML file, filling missing fields with
// defaults and validating the result.
func Load(path string) (*RoundConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading round config: %w", err)
	}
	return Parse(data)
}

// Parse unmarshals round YAML bytes, fills missing fields with defaults and
// validates the result.
func Parse(data []byte) (*RoundConfig, error) {
	cfg := New()

	var fileCfg RoundConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing round config: %w", err)
	}

	mergeConfig(cfg, &fileCfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CallTimeout returns the per-model call timeout as a duration.
func (c *RoundConfig) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSec) * time.Second
}

// Request converts the round configuration into an ensemble request.
func (c *RoundConfig) Request() chorus.EnsembleRequest {
	models := make([]string, 0, len(c.Models))
	for _, m := range c.Models {
		models = append(models, m.ID)
	}

	snippets := make([]chorus.KnowledgeSnippet, 0, len(c.Context))
	for _, s := range c.Context {
		snippets = append(snippets, chorus.KnowledgeSnippet{
			Content:   s.Content,
			Relevance: s.Relevance,
		})
	}

	temp := DefaultTemperature
	if c.Temperature != nil {
		temp = *c.Temperature
	}

	return chorus.EnsembleRequest{
		Models:       models,
		Turns:        []chorus.Turn{{Role: chorus.RoleUser, Content: c.Prompt}},
		Strategy:     c.Strategy,
		MinAgreement: c.MinAgreement,
		SelfCorrect:  c.SelfCorrection,
		Context:      snippets,
		Temperature:  temp,
		MaxTokens:    c.MaxTokens,
	}
}

// GatewayName resolves the gateways map key for one model entry.
func (m ModelConfig) GatewayName() string {
	if m.Gateway != "" {
		return m.Gateway
	}
	return DefaultGatewayName
}

func (c *RoundConfig) validate() error {
	if c.Name == "" {
		return fmt.Errorf("round config: name is required")
	}
	if len(c.Models) == 0 {
		return fmt.Errorf("round config: at least one model is required")
	}
	if c.Prompt == "" {
		return fmt.Errorf("round config: prompt is required")
	}
	if _, err := selection.Parse(c.Strategy); err != nil {
		return fmt.Errorf("round config: %w", err)
	}
	for _, m := range c.Models {
		if m.ID == "" {
			return fmt.Errorf("round config: model id is required")
		}
		if _, ok := c.Gateways[m.GatewayName()]; !ok {
			return fmt.Errorf("round config: model %q references unknown gateway %q", m.ID, m.GatewayName())
		}
	}
	return nil
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *RoundConfig) {
	dst.Name = src.Name
	dst.Models = src.Models
	dst.Prompt = src.Prompt
	dst.Context = src.Context
	dst.MinAgreement = src.MinAgreement
	dst.SelfCorrection = src.SelfCorrection

	if src.Strategy != "" {
		dst.Strategy = src.Strategy
	}
	if src.CallTimeoutSec != 0 {
		dst.CallTimeoutSec = src.CallTimeoutSec
	}
	if src.Temperature != nil {
		dst.Temperature = src.Temperature
	}
	if src.MaxTokens != 0 {
		dst.MaxTokens = src.MaxTokens
	}
	if len(src.Gateways) > 0 {
		dst.Gateways = src.Gateways
	}
}
