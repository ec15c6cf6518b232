package debug

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"
)

// debug lines go to their own logger so they stand apart from regular log output
var logger = log.New(os.Stderr, "[debug] ", log.Ltime|log.Lmicroseconds)

// SetOutput redirects debug output
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// DebugHeader marks the start of a run section
func DebugHeader(enabled bool, section string) {
	if enabled {
		logger.Printf("--- %s ---", section)
	}
}

// DebugOutput logs one formatted line
func DebugOutput(enabled bool, format string, args ...interface{}) {
	if enabled {
		logger.Printf(format, args...)
	}
}

// DebugCounts logs counts as "label: a=1 b=2", keys sorted
func DebugCounts(enabled bool, label string, counts map[string]int) {
	if !enabled {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%d", k, counts[k])
	}
	logger.Printf("%s:%s", label, b.String())
}

// DebugTiming returns a func that logs how long operation took once called
func DebugTiming(enabled bool, operation string) func() {
	if !enabled {
		return func() {}
	}
	start := time.Now()
	return func() {
		logger.Printf("%s took %s", operation, time.Since(start).Round(time.Microsecond))
	}
}
