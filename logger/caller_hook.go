package logger

import (
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	maxCallerDepth = 25
	logrusPackage  = "github.com/sirupsen/logrus"
	loggerPackage  = "bybitdash/logger."
)

// callerHook points the reported caller at the first frame outside logrus
// and this package, so wrapped entries report the real call site.
type callerHook struct{}

func (h *callerHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *callerHook) Fire(entry *logrus.Entry) error {
	pcs := make([]uintptr, maxCallerDepth)
	n := runtime.Callers(4, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !isLoggingFrame(frame.Function) {
			entry.Caller = &frame
			return nil
		}
		if !more {
			return nil
		}
	}
}

func isLoggingFrame(fn string) bool {
	return fn == "" || strings.HasPrefix(fn, logrusPackage) || strings.HasPrefix(fn, loggerPackage)
}
