package traceexport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gotrace "github.com/joeycumines/gotrace"
)

// TestWrite_CompleteEventShape pins the exact Complete-event JSON shape:
// a single event with start=2002ns, duration=3033ns must render dur/ts in
// microseconds and carry pid/tid/args.
func TestWrite_CompleteEventShape(t *testing.T) {
	log := gotrace.New()
	require.NoError(t, log.Start(context.Background(), gotrace.TraceConfig{
		BufferMode:        gotrace.BufferModeFixed,
		BufferSize:        4096,
		EnabledCategories: []string{"*"},
	}))

	tenant, err := log.RegisterGoroutine(context.Background(), "")
	require.NoError(t, err)

	tpi := gotrace.NewTracepoint("cat", "n", gotrace.Complete, [2]string{}, [2]gotrace.ArgType{})
	log.LogCompleteEvent(tenant, tpi, 2002, 3033, gotrace.NoneArg(), gotrace.NoneArg())

	require.NoError(t, log.DeregisterGoroutine(tenant))
	require.NoError(t, log.Stop(context.Background(), false))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, log))

	var doc struct {
		TraceEvents []map[string]any `json:"traceEvents"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.TraceEvents, 1)

	ev := doc.TraceEvents[0]
	assert.Equal(t, "n", ev["name"])
	assert.Equal(t, "cat", ev["cat"])
	assert.Equal(t, "X", ev["ph"])
	assert.Equal(t, 3.033, ev["dur"])
	assert.Equal(t, 2.002, ev["ts"])
	assert.Equal(t, float64(os.Getpid()), ev["pid"])
	assert.Equal(t, map[string]any{}, ev["args"])
}

// TestWrite_RoundMicrosecondValuesKeepThreeDigitFraction pins the fixed
// three-digit microsecond fraction required for "dur"/"ts": a duration or
// timestamp that is an exact multiple of 1000ns (or 100ns) must still
// render a full ".000"/".500"/".100" fraction, never a shortened or
// integer-looking number. This would not be caught by comparing decoded
// float64 values (1.0 == 1.000 numerically), so it inspects the raw JSON
// text instead.
func TestWrite_RoundMicrosecondValuesKeepThreeDigitFraction(t *testing.T) {
	log := gotrace.New()
	require.NoError(t, log.Start(context.Background(), gotrace.TraceConfig{
		BufferMode:        gotrace.BufferModeFixed,
		BufferSize:        4096,
		EnabledCategories: []string{"*"},
	}))

	tenant, err := log.RegisterGoroutine(context.Background(), "")
	require.NoError(t, err)

	tpi := gotrace.NewTracepoint("cat", "n", gotrace.Complete, [2]string{}, [2]gotrace.ArgType{})
	// duration=1000ns -> exactly 1 microsecond; ts=500ns -> 0.5us; both must
	// still print a three-digit fraction, not "1" or "0.5".
	log.LogCompleteEvent(tenant, tpi, 500, 1000, gotrace.NoneArg(), gotrace.NoneArg())

	require.NoError(t, log.DeregisterGoroutine(tenant))
	require.NoError(t, log.Stop(context.Background(), false))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, log))

	out := buf.String()
	assert.Contains(t, out, `"dur":1.000`)
	assert.Contains(t, out, `"ts":0.500`)
	assert.NotContains(t, out, `"dur":1,`)
	assert.NotContains(t, out, `"ts":0.5,`)
}

func TestWrite_EmptyLogProducesEmptyEventArray(t *testing.T) {
	log := gotrace.New()
	require.NoError(t, log.Start(context.Background(), gotrace.TraceConfig{BufferMode: gotrace.BufferModeFixed, BufferSize: 4096}))
	require.NoError(t, log.Stop(context.Background(), false))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, log))
	assert.JSONEq(t, `{"traceEvents":[]}`, buf.String())
}

func TestWrite_EmitsThreadNameMetadataEvents(t *testing.T) {
	log := gotrace.New()
	require.NoError(t, log.Start(context.Background(), gotrace.TraceConfig{BufferMode: gotrace.BufferModeFixed, BufferSize: 4096}))

	tenant, err := log.RegisterGoroutine(context.Background(), "exporter-worker")
	require.NoError(t, err)
	require.NoError(t, log.DeregisterGoroutine(tenant))
	require.NoError(t, log.Stop(context.Background(), false))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, log))

	var doc struct {
		TraceEvents []map[string]any `json:"traceEvents"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	var found bool
	for _, ev := range doc.TraceEvents {
		if ev["ph"] == "M" && ev["name"] == "thread_name" {
			args, _ := ev["args"].(map[string]any)
			if args["name"] == "exporter-worker" {
				found = true
			}
		}
	}
	assert.True(t, found, "expected a thread_name metadata event for exporter-worker")
}

func TestFileSink_WritesAndExpandsPathTemplate(t *testing.T) {
	dir := t.TempDir()
	template := dir + "/trace-%p.json"

	log := gotrace.New(
		WithFileSinkOption(t, template),
	)
	require.NoError(t, log.Start(context.Background(), gotrace.TraceConfig{BufferMode: gotrace.BufferModeFixed, BufferSize: 4096}))
	require.NoError(t, log.Stop(context.Background(), false))

	wantPath := fmt.Sprintf("%s/trace-%d.json", dir, os.Getpid())
	data, err := os.ReadFile(wantPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"traceEvents"`)
}

// WithFileSinkOption is a small test helper wiring FileSink as the stop
// callback, kept here rather than in production code since nothing else
// needs a bare passthrough wrapper around gotrace.WithStopCallback.
func WithFileSinkOption(t *testing.T, template string) gotrace.Option {
	t.Helper()
	return gotrace.WithStopCallback(FileSink(template))
}

func TestGenerateFilePath(t *testing.T) {
	got := generateFilePath("/tmp/out-%p.json")
	assert.Equal(t, fmt.Sprintf("/tmp/out-%d.json", os.Getpid()), got)

	got = generateFilePath("/tmp/out.json")
	assert.Equal(t, "/tmp/out.json", got)
}
