// Package testing holds helpers shared by the package tests: test-mode
// environment and an HTTP harness with real sessions on miniredis.
package testing

import (
	"os"
	stdtesting "testing"
)

// Importing this package switches binaries to test mode and points PDF
// rendering at an address that refuses connections.
var testEnv = map[string]string{
	"STOREFRONT_TEST_MODE": "1",
	"GOTENBERG_URL":        "http://127.0.0.1:0",
}

func init() {
	for key, value := range testEnv {
		if os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
}

// Main runs m after the test environment is in place. Use it from a
// package TestMain.
func Main(m *stdtesting.M) {
	os.Exit(m.Run())
}
