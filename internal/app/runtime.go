package app

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// TestModeEnv makes the binaries return from main before dialling Redis or
// binding ports. Any value strconv.ParseBool accepts as true enables it.
const TestModeEnv = "REWARDSTRATEGY_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	return testModeEnabled(os.Getenv(TestModeEnv))
})

// InTestMode reports whether binaries should skip runtime side effects. The
// environment is read once per process.
func InTestMode() bool {
	return testMode()
}

func testModeEnabled(value string) bool {
	on, err := strconv.ParseBool(strings.TrimSpace(value))
	return err == nil && on
}
