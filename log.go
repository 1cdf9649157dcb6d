package tracelog

import (
	"io"

	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/rs/zerolog"
)

// diagLogger is the narrow internal-diagnostics surface TraceLog uses. It
// is deliberately tiny (lifecycle + error notices only, never the trace
// data path) and is satisfied by a thin adapter over
// logiface.Logger[logiface.Event], so embedding applications can supply
// any logiface backend (zerolog, slog, stumpy, ...) without this package
// depending on a concrete one.
type diagLogger interface {
	Info(msg string, fields map[string]any)
	Error(msg string, err error, fields map[string]any)
}

// noopLogger is the default diagLogger: TraceLog never produces output an
// embedding application didn't ask for.
type noopLogger struct{}

func (noopLogger) Info(string, map[string]any)         {}
func (noopLogger) Error(string, error, map[string]any) {}

// logifaceLogger adapts a logiface.Logger[logiface.Event] to diagLogger.
type logifaceLogger struct {
	l *logiface.Logger[logiface.Event]
}

// NewLogifaceLogger wraps an existing logiface logger for use as a
// TraceLog diagnostics sink, via WithLogger.
func NewLogifaceLogger(l *logiface.Logger[logiface.Event]) diagLogger {
	return &logifaceLogger{l: l}
}

func (d *logifaceLogger) Info(msg string, fields map[string]any) {
	b := d.l.Info()
	if b == nil {
		return
	}
	for k, v := range fields {
		b.Any(k, v)
	}
	b.Log(msg)
}

func (d *logifaceLogger) Error(msg string, err error, fields map[string]any) {
	b := d.l.Err()
	if b == nil {
		return
	}
	if err != nil {
		b = b.Err(err)
	}
	for k, v := range fields {
		b.Any(k, v)
	}
	b.Log(msg)
}

// NewZerologLogger builds a zerolog-backed diagnostics logger, wiring
// logiface's zerolog backend (izerolog) over w -- matching the teacher's
// own L.New(L.WithZerolog(...)) construction idiom.
func NewZerologLogger(w io.Writer) diagLogger {
	base := zerolog.New(w).With().Timestamp().Logger()
	l := izerolog.L.New(
		izerolog.L.WithZerolog(base),
		izerolog.L.WithLevel(izerolog.L.LevelTrace()),
	).Logger()
	return NewLogifaceLogger(l)
}
