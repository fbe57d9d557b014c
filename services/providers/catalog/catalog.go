package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/upb/parallelai/services/providers"
	"github.com/upb/parallelai/services/providers/anthropic"
	"github.com/upb/parallelai/services/providers/openai"
)

// Adapters returns one adapter per supported family
func Adapters() []providers.Adapter {
	return []providers.Adapter{
		openai.NewAdapter(),
		anthropic.NewAdapter(),
	}
}

// Builtin returns the default provider table
func Builtin() []providers.Descriptor {
	return []providers.Descriptor{
		{
			ID:           "openai",
			Endpoint:     "https://api.openai.com/v1/chat/completions",
			DefaultModel: "gpt-3.5-turbo",
			AuthStyle:    providers.AuthBearer,
			Family:       providers.FamilyChat,
		},
		{
			ID:            "anthropic",
			Endpoint:      "https://api.anthropic.com/v1/messages",
			DefaultModel:  "claude-3-haiku-20240307",
			AuthStyle:     providers.AuthHeaderPair,
			Family:        providers.FamilyMessages,
			APIKeyHeader:  "x-api-key",
			VersionHeader: "anthropic-version",
			Version:       "2023-06-01",
		},
		{
			ID:           "groq",
			Endpoint:     "https://api.groq.com/openai/v1/chat/completions",
			DefaultModel: "llama-3.1-8b-instant",
			AuthStyle:    providers.AuthBearer,
			Family:       providers.FamilyChat,
		},
		{
			ID:           "together",
			Endpoint:     "https://api.together.xyz/v1/chat/completions",
			DefaultModel: "meta-llama/Llama-3-70b-chat-hf",
			AuthStyle:    providers.AuthBearer,
			Family:       providers.FamilyChat,
		},
		{
			ID:           "openrouter",
			Endpoint:     "https://openrouter.ai/api/v1/chat/completions",
			DefaultModel: "google/gemini-3-flash-preview",
			AuthStyle:    providers.AuthBearer,
			Family:       providers.FamilyChat,
			ExtraHeaders: map[string]string{
				"HTTP-Referer": "https://github.com/parallelai-research/parallelai",
				"X-Title":      "ParallelAI Research",
			},
		},
	}
}

// File is the on-disk descriptor format
type File struct {
	Providers []providers.Descriptor `yaml:"providers"`
}

// LoadFile reads descriptors from a YAML file
func LoadFile(path string) ([]providers.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading providers file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing providers file %s: %w", path, err)
	}

	return f.Providers, nil
}

// Merge overlays overrides onto base: entries with a known id replace the
// base entry, new ids are appended in order
func Merge(base, overrides []providers.Descriptor) []providers.Descriptor {
	index := make(map[string]int, len(base))
	merged := make([]providers.Descriptor, 0, len(base)+len(overrides))
	for _, d := range base {
		index[d.ID] = len(merged)
		merged = append(merged, d)
	}
	for _, d := range overrides {
		if i, ok := index[d.ID]; ok {
			merged[i] = d
			continue
		}
		index[d.ID] = len(merged)
		merged = append(merged, d)
	}
	return merged
}

// NewRegistry builds the registry from the built-in table, overlaid with
// the descriptors in path when path is non-empty
func NewRegistry(path string) (*providers.Registry, error) {
	descs := Builtin()
	if path != "" {
		overrides, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		descs = Merge(descs, overrides)
	}
	return providers.NewRegistry(Adapters(), descs...)
}
