package dispatch

import (
	"errors"
	"fmt"
	"sync"
)

// ErrPathCollision is returned when two distinct tasks derive the same output
// path. Correct path derivation makes this unreachable; the guard exists so a
// derivation bug fails loudly instead of silently interleaving writes.
var ErrPathCollision = errors.New("output path collision")

// PathClaims records which task owns each output path. All methods are
// goroutine-safe.
type PathClaims struct {
	mu     sync.Mutex
	owners map[string]string // output path -> owning task key
}

// NewPathClaims creates an empty claims registry.
func NewPathClaims() *PathClaims {
	return &PathClaims{owners: make(map[string]string)}
}

// Claim registers path as owned by owner. Re-claiming a path with the same
// owner is allowed (idempotent re-runs overwrite their own output); a claim by
// a different owner is a hard failure.
func (c *PathClaims) Claim(owner, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, exists := c.owners[path]
	if exists && prev != owner {
		return fmt.Errorf("%w: %s claimed by both %s and %s", ErrPathCollision, path, prev, owner)
	}
	c.owners[path] = owner
	return nil
}
