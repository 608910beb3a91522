package collab_test

import (
	"testing"

	"go.uber.org/goleak"
)

// The coordinator must never leak goroutines: all of its work happens
// synchronously on the caller's goroutine.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
