package app

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// testModeEnv makes cmd/perfdash and cmd/worker return before dialing the warehouse or Redis,
// so `go test ./...` can build and run the binaries' packages without infrastructure.
const testModeEnv = "PERFDASH_TEST_MODE"

var (
	testMode     atomic.Bool
	testModeOnce sync.Once
)

func readTestMode() {
	enabled, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(testModeEnv)))
	testMode.Store(err == nil && enabled)
}

// InTestMode reports whether PERFDASH_TEST_MODE is set to a true value ("1", "true", ...).
func InTestMode() bool {
	testModeOnce.Do(readTestMode)
	return testMode.Load()
}

// RefreshTestMode re-reads PERFDASH_TEST_MODE after the environment changed.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	readTestMode()
}
