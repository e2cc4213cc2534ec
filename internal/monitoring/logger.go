// Package monitoring holds the diagnostic logger shared by the recognition
// pipeline. Output goes through the standard log package, which the binary
// points at stderr because stdout carries the MCP protocol.
package monitoring

import (
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevelEnv names the environment variable that enables debug output.
const LogLevelEnv = "DOTMARKER_LOG_LEVEL"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

var debug atomic.Bool

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetDebug turns debug output on or off.
func SetDebug(enabled bool) {
	debug.Store(enabled)
}

// DebugEnabled reports whether Debugf writes anything.
func DebugEnabled() bool {
	return debug.Load()
}

// ConfigureFromEnv enables debug output when DOTMARKER_LOG_LEVEL=debug.
func ConfigureFromEnv() {
	SetDebug(strings.EqualFold(os.Getenv(LogLevelEnv), "debug"))
}

// Debugf logs only when debug output is enabled.
func Debugf(format string, v ...interface{}) {
	if debug.Load() {
		Logf(format, v...)
	}
}
