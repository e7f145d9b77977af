// Package diag captures diagnostic text a collaborator prints while it works.
//
// A Capture is a scoped sink: it collects writes into a private buffer until
// Release is called, after which writes go to the fallback writer instead.
// Each query cycle owns its own Capture, so concurrent cycles never share
// an output destination.
package diag

import (
	"bytes"
	"io"
	"strings"
	"sync"
)

// Capture is an io.Writer bound to one query cycle.
type Capture struct {
	mu       sync.Mutex
	buf      bytes.Buffer
	fallback io.Writer
	released bool
	text     string
}

// Begin starts a capture. Writes arriving after Release are forwarded to
// fallback; a nil fallback discards them.
func Begin(fallback io.Writer) *Capture {
	if fallback == nil {
		fallback = io.Discard
	}
	return &Capture{fallback: fallback}
}

// Write implements io.Writer.
func (c *Capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released {
		return c.fallback.Write(p)
	}
	return c.buf.Write(p)
}

// Release detaches the buffer and returns its trimmed content.
// Calling it again returns the same text.
func (c *Capture) Release() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.released {
		c.released = true
		c.text = strings.TrimSpace(c.buf.String())
		c.buf.Reset()
	}
	return c.text
}

// Active reports whether the capture still owns its buffer.
func (c *Capture) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.released
}
