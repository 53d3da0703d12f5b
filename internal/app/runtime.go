package app

import (
	"log/slog"
	"os"
	"sync"
)

// TestModeEnv is set by the test helpers so binaries never dial Postgres,
// Redis or SMTP when built into a test run.
const TestModeEnv = "STOREFRONT_TEST_MODE"

var testMode = sync.OnceValue(func() bool {
	return os.Getenv(TestModeEnv) == "1"
})

// InTestMode reports whether binaries should skip runtime side effects.
func InTestMode() bool {
	return testMode()
}

// SkipStartup logs and reports true when component must not start.
func SkipStartup(component string) bool {
	if !InTestMode() {
		return false
	}
	slog.Default().Info("test mode detected, skipping startup", slog.String("component", component))
	return true
}
