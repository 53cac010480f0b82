// This source form is governed by the GNU General Public License v3.0 (or
// later). See <https://www.gnu.org/licenses/> for the full text.

package test

import "fmt"

// CappedWriter is an io.Writer that accepts writes only up to a fixed
// capacity; anything beyond that is silently dropped. Useful for tests that
// want to guard against runaway log output without bounding every call site.
type CappedWriter struct {
	buf   []byte
	limit int
}

// NewCappedWriter creates a CappedWriter with the given byte limit.
func NewCappedWriter(limit int) (*CappedWriter, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("capped writer: limit must be greater than zero")
	}
	return &CappedWriter{limit: limit}, nil
}

// Write implements io.Writer. Bytes beyond the writer's capacity are
// discarded; Write never returns an error on that account.
func (c *CappedWriter) Write(p []byte) (int, error) {
	room := c.limit - len(c.buf)
	if room <= 0 {
		return len(p), nil
	}
	if room > len(p) {
		room = len(p)
	}
	c.buf = append(c.buf, p[:room]...)
	return len(p), nil
}

// String returns the content written so far, up to the capacity limit.
func (c *CappedWriter) String() string {
	return string(c.buf)
}

// Reset empties the writer.
func (c *CappedWriter) Reset() {
	c.buf = c.buf[:0]
}
