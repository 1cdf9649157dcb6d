package tracelog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTraceConfig_RoundTrip(t *testing.T) {
	cfg := TraceConfig{
		BufferMode:         BufferModeRing,
		BufferSize:         4096,
		EnabledCategories:  []string{"memcached:*", "kv:*"},
		DisabledCategories: []string{"memcached:cmd_set"},
		SaveOnStop:         "/tmp/trace-%p-%d.json",
	}

	parsed, err := ParseTraceConfig(cfg.String())
	require.NoError(t, err)

	assert.Equal(t, cfg.BufferMode, parsed.BufferMode)
	assert.Equal(t, cfg.BufferSize, parsed.BufferSize)
	assert.Equal(t, cfg.EnabledCategories, parsed.EnabledCategories)
	assert.Equal(t, cfg.DisabledCategories, parsed.DisabledCategories)
	assert.Equal(t, cfg.SaveOnStop, parsed.SaveOnStop)
}

func TestParseTraceConfig_RequiresBufferModeAndSize(t *testing.T) {
	_, err := ParseTraceConfig("buffer-size:1024")
	assert.Error(t, err)

	_, err = ParseTraceConfig("buffer-mode:fixed")
	assert.Error(t, err)
}

func TestParseTraceConfig_RejectsUnknownKey(t *testing.T) {
	_, err := ParseTraceConfig("buffer-mode:fixed;buffer-size:1024;bogus:1")
	assert.Error(t, err)
}

func TestParseTraceConfig_RejectsMalformedPair(t *testing.T) {
	_, err := ParseTraceConfig("buffer-mode-fixed")
	assert.Error(t, err)
}

func TestParseTraceConfig_RejectsBadBufferSize(t *testing.T) {
	_, err := ParseTraceConfig("buffer-mode:fixed;buffer-size:0")
	assert.Error(t, err)

	_, err = ParseTraceConfig("buffer-mode:fixed;buffer-size:notanumber")
	assert.Error(t, err)
}

func TestParseTraceConfig_Basic(t *testing.T) {
	cfg, err := ParseTraceConfig("buffer-mode:fixed;buffer-size:2048")
	require.NoError(t, err)
	assert.Equal(t, BufferModeFixed, cfg.BufferMode)
	assert.Equal(t, 2048, cfg.BufferSize)
	assert.Empty(t, cfg.EnabledCategories)
	assert.Empty(t, cfg.DisabledCategories)
	assert.Empty(t, cfg.SaveOnStop)
}

func TestParseTraceConfig_EmptyPairsIgnored(t *testing.T) {
	cfg, err := ParseTraceConfig("buffer-mode:fixed;;buffer-size:1024;")
	require.NoError(t, err)
	assert.Equal(t, BufferModeFixed, cfg.BufferMode)
	assert.Equal(t, 1024, cfg.BufferSize)
}
