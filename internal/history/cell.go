package history

import (
	"sync"

	"github.com/hostdiag/wifiradar/internal/optional"
)

// Cell is a latest-value slot for data that is refreshed in place
// rather than accumulated, such as the scan results or the most
// recent speed test. The zero value is an empty cell.
type Cell[T any] struct {
	// mu protects value.
	mu sync.Mutex

	// value is the stored value, if any.
	value optional.Value[T]
}

// Store replaces the cell content.
func (c *Cell[T]) Store(value T) {
	defer c.mu.Unlock()
	c.mu.Lock()
	c.value = optional.Some(value)
}

// Load returns the cell content, if any.
func (c *Cell[T]) Load() optional.Value[T] {
	defer c.mu.Unlock()
	c.mu.Lock()
	return c.value
}
