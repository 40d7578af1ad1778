package testutil

import (
	"os"
	"testing"
)

// RequireTestEnvironmentOrSkip skips the test unless GO_ENV is "test".
// The postgres-backed suites mutate whatever database they are pointed at,
// so they only run when the environment is explicitly marked as a test one.
func RequireTestEnvironmentOrSkip(t *testing.T) {
	t.Helper()

	if env := os.Getenv("GO_ENV"); env != "test" {
		t.Skipf("Skipping test: GO_ENV must be 'test' (current: %q)", env)
	}
}

// TestDatabaseURL returns the postgres URL for integration tests, skipping
// the test when none is configured.
func TestDatabaseURL(t *testing.T) string {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Skipping test: TEST_DATABASE_URL is not set")
	}
	return url
}
