package traceexport

import (
	"os"
	"strconv"
	"strings"
	"time"

	gotrace "github.com/joeycumines/gotrace"
)

// FileSink builds a gotrace.StopCallbackFunc that renders the stopped log
// to a file, expanding %p (process id) and %d (a UTC timestamp,
// YYYY.MM.DDTHH.MM.SSZ) in pathTemplate. Each token is substituted once.
//
// Grounded on original_source's src/tools/export.cc (FileStopCallback,
// generateFilePath).
func FileSink(pathTemplate string) gotrace.StopCallbackFunc {
	return func(log *gotrace.TraceLog, token gotrace.StopToken) error {
		path := generateFilePath(pathTemplate)

		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return &gotrace.IOError{Cause: err, Message: "opening trace output file " + path}
		}
		defer f.Close()

		buf, err := log.GetBufferLocked(token)
		if err != nil {
			return &gotrace.IOError{Cause: err, Message: "writing trace output file " + path}
		}
		if err := writeTraceEvents(f, buf, log.GoroutineNamesLocked(token)); err != nil {
			return &gotrace.IOError{Cause: err, Message: "writing trace output file " + path}
		}
		return nil
	}
}

func generateFilePath(template string) string {
	path := strings.Replace(template, "%p", strconv.Itoa(os.Getpid()), 1)
	path = strings.Replace(path, "%d", time.Now().UTC().Format("2006.01.02T15.04.05Z"), 1)
	return path
}
