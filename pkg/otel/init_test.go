package otel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEndpoint(t *testing.T) {
	tests := []struct {
		raw       string
		target    string
		plaintext bool
	}{
		{"localhost:4317", "localhost:4317", true},
		{"http://collector:4317", "collector:4317", true},
		{"https://otel.example.com:443/", "otel.example.com:443", false},
		{" HTTPS://otel.example.com:443 ", "otel.example.com:443", false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			target, plaintext := parseEndpoint(tt.raw)
			assert.Equal(t, tt.target, target)
			assert.Equal(t, tt.plaintext, plaintext)
		})
	}
}

func TestSampler(t *testing.T) {
	assert.Equal(t, "AlwaysOnSampler", sampler("development", 0.1).Description())
	assert.Equal(t, "AlwaysOnSampler", sampler("production", 1).Description())
	assert.Contains(t, sampler("production", 0.25).Description(), "TraceIDRatioBased{0.25}")
	assert.Contains(t, sampler("production", 0).Description(), "TraceIDRatioBased{0.1}")
}
