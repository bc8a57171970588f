package app

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"
)

const testModeEnv = "LEDGER_TEST_MODE"

var (
	testMode     atomic.Bool
	testModeOnce sync.Once
)

func loadTestMode() {
	on, err := strconv.ParseBool(os.Getenv(testModeEnv))
	testMode.Store(err == nil && on)
}

// InTestMode reports whether entrypoints should skip opening connections.
// LEDGER_TEST_MODE accepts any strconv.ParseBool value.
func InTestMode() bool {
	testModeOnce.Do(loadTestMode)
	return testMode.Load()
}

// RefreshTestMode re-reads LEDGER_TEST_MODE after the environment changes.
func RefreshTestMode() {
	testModeOnce.Do(func() {})
	loadTestMode()
}
