package testfixtures

import (
	"fmt"
	"sync"
)

// IDGenerator produces deterministic identifiers of the form "prefix-N" for
// use in tests that need stable IDs.
type IDGenerator struct {
	mu      sync.Mutex
	prefix  string
	counter int
}

// NewIDGenerator returns a generator using the supplied prefix. An empty
// prefix falls back to "id".
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

// Next returns the next identifier in the sequence.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("%s-%d", g.prefix, g.counter)
}

// NextFunc exposes Next as a function suitable for dependency injection.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// SetCounter positions the sequence so the next call returns counter+1.
func (g *IDGenerator) SetCounter(counter int) {
	g.mu.Lock()
	g.counter = counter
	g.mu.Unlock()
}
