// Package traceexport renders a stopped tracelog.TraceLog's buffer in the
// Chrome Trace Event JSON format, as a streaming serializer rather than an
// in-memory document builder.
//
// Grounded on original_source's src/tools/export.cc (the JSONExport state
// machine) and src/trace_event.cc (to_json field formatting), using
// github.com/joeycumines/go-utilpkg/jsonenc for allocation-light string
// and float encoding -- the same library the ecosystem's own zerolog-backed
// logging stack is built on.
package traceexport

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"github.com/joeycumines/go-utilpkg/jsonenc"
	gotrace "github.com/joeycumines/gotrace"
)

// Write streams log's stopped buffer to w as a Chrome Trace Event JSON
// document: {"traceEvents":[...]}. It must be called after log.Stop, since
// it takes buffer ownership via log.GetBuffer.
//
// Write takes the global lock itself (via GetBuffer/GoroutineNames) and so
// must never be called from within a gotrace.StopCallbackFunc; use FileSink,
// which calls writeTraceEvents directly against the lock-held accessors,
// for that case.
func Write(w io.Writer, log *gotrace.TraceLog) error {
	buf, err := log.GetBuffer()
	if err != nil {
		return err
	}
	return writeTraceEvents(w, buf, log.GoroutineNames())
}

// writeTraceEvents is the lock-agnostic core shared by Write and FileSink:
// it assumes buf and names were already obtained by the caller, under
// whatever locking discipline applies to that caller.
func writeTraceEvents(w io.Writer, buf gotrace.TraceBuffer, names map[uint64]string) error {
	bw := bufio.NewWriter(w)
	pid := os.Getpid()

	if _, err := bw.WriteString(`{"traceEvents":[`); err != nil {
		return err
	}

	first := true
	writeComma := func() error {
		if first {
			first = false
			return nil
		}
		return bw.WriteByte(',')
	}

	var rangeErr error
	if buf != nil {
		buf.ForEachChunk(func(chunk *gotrace.TraceChunk) {
			if rangeErr != nil {
				return
			}
			for i := 0; i < int(chunk.NextFree); i++ {
				ev := chunk.Events[i]
				if err := writeComma(); err != nil {
					rangeErr = err
					return
				}
				if err := writeEvent(bw, ev, chunk.GoroutineID, pid); err != nil {
					rangeErr = err
					return
				}
			}
		})
	}
	if rangeErr != nil {
		return rangeErr
	}

	for gid, name := range names {
		if err := writeComma(); err != nil {
			return err
		}
		if err := writeThreadNameEvent(bw, gid, pid, name); err != nil {
			return err
		}
	}

	if _, err := bw.WriteString(`]}`); err != nil {
		return err
	}
	return bw.Flush()
}

func writeEvent(bw *bufio.Writer, ev gotrace.TraceEvent, tid uint64, pid int) error {
	var buf []byte
	buf = append(buf, '{')

	buf = append(buf, `"name":`...)
	buf = jsonenc.AppendString(buf, ev.TPI.Name)

	buf = append(buf, `,"cat":`...)
	buf = jsonenc.AppendString(buf, ev.TPI.Category)

	ph := ev.TPI.Type.PhaseChar()
	buf = append(buf, `,"ph":"`...)
	buf = append(buf, ph)
	buf = append(buf, '"')

	switch ev.TPI.Type {
	case gotrace.AsyncStart, gotrace.AsyncEnd:
		buf = append(buf, `,"id":"0x`...)
		buf = strconv.AppendUint(buf, ev.Args[0].AsUint64(), 16)
		buf = append(buf, '"')
	case gotrace.Instant:
		buf = append(buf, `,"s":"t"`...)
	case gotrace.GlobalInstant:
		buf = append(buf, `,"s":"g"`...)
	case gotrace.Complete:
		buf = append(buf, `,"dur":`...)
		buf = appendMicros(buf, ev.Duration)
	}

	buf = append(buf, `,"ts":`...)
	buf = appendMicros(buf, uint64(ev.Time))

	buf = append(buf, `,"pid":`...)
	buf = strconv.AppendInt(buf, int64(pid), 10)

	buf = append(buf, `,"tid":`...)
	buf = strconv.AppendUint(buf, tid, 10)

	buf = append(buf, `,"args":{`...)
	buf = appendArgs(buf, ev)
	buf = append(buf, '}', '}')

	_, err := bw.Write(buf)
	return err
}

// appendMicros renders ns nanoseconds as whole-microseconds, dot, a fixed
// zero-padded three-digit nanosecond remainder -- mirroring
// original_source's std::lldiv(value, 1000) + "%lld.%03lld" formatting for
// both "ts" and "dur". Unlike jsonenc.AppendFloat64's shortest-round-trip
// formatting, this never drops trailing zeros: 1000ns renders "1.000", not
// "1".
func appendMicros(buf []byte, ns uint64) []byte {
	us, rem := ns/1000, ns%1000
	buf = strconv.AppendUint(buf, us, 10)
	buf = append(buf, '.')
	buf = append(buf, byte('0'+rem/100), byte('0'+(rem/10)%10), byte('0'+rem%10))
	return buf
}

func appendArgs(buf []byte, ev gotrace.TraceEvent) []byte {
	wrote := false
	for i := 0; i < 2; i++ {
		name := ev.TPI.ArgNames[i]
		typ := ev.TPI.ArgTypes[i]
		if typ == gotrace.ArgNone || name == "" {
			continue
		}
		if wrote {
			buf = append(buf, ',')
		}
		wrote = true
		buf = jsonenc.AppendString(buf, name)
		buf = append(buf, ':')
		buf = appendArgValue(buf, ev.Args[i], typ)
	}
	return buf
}

func appendArgValue(buf []byte, a gotrace.TraceArgument, typ gotrace.ArgType) []byte {
	switch typ {
	case gotrace.ArgBool:
		if a.AsBool() {
			return append(buf, "true"...)
		}
		return append(buf, "false"...)
	case gotrace.ArgInt64:
		return strconv.AppendInt(buf, a.AsInt64(), 10)
	case gotrace.ArgUint64:
		return strconv.AppendUint(buf, a.AsUint64(), 10)
	case gotrace.ArgDouble:
		return jsonenc.AppendFloat64(buf, a.AsDouble())
	case gotrace.ArgPointer:
		buf = append(buf, `"0x`...)
		buf = strconv.AppendUint(buf, uint64(uintptr(a.AsPointer())), 16)
		return append(buf, '"')
	case gotrace.ArgExternalString:
		if s := a.AsExternalString(); s != nil {
			return jsonenc.AppendString(buf, *s)
		}
		return jsonenc.AppendString(buf, "")
	case gotrace.ArgInlineString:
		return jsonenc.AppendString(buf, a.AsInlineString(8))
	default:
		return append(buf, "null"...)
	}
}

func writeThreadNameEvent(bw *bufio.Writer, tid uint64, pid int, name string) error {
	var buf []byte
	buf = append(buf, `{"name":"thread_name","ph":"M","pid":`...)
	buf = strconv.AppendInt(buf, int64(pid), 10)
	buf = append(buf, `,"tid":`...)
	buf = strconv.AppendUint(buf, tid, 10)
	buf = append(buf, `,"args":{"name":`...)
	buf = jsonenc.AppendString(buf, name)
	buf = append(buf, '}', '}')
	_, err := bw.Write(buf)
	return err
}
