// Package client holds the process-wide asynq client used to enqueue
// delivery tasks.
package client

import (
	"sync"

	"github.com/hibiken/asynq"
)

var (
	mu     sync.RWMutex
	shared *asynq.Client
)

// Set installs the enqueue client and returns a function restoring the
// previous one, so tests can swap in their own.
func Set(c *asynq.Client) func() {
	mu.Lock()
	prev := shared
	shared = c
	mu.Unlock()

	return func() { Set(prev) }
}

// Shared returns the installed enqueue client, nil until Set is called.
func Shared() *asynq.Client {
	mu.RLock()
	defer mu.RUnlock()

	return shared
}
