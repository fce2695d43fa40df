package grammar

// cursor walks a single log line. Every matcher either succeeds and advances,
// or fails and leaves pos untouched, so alternatives can be retried in order
// on the same input.
type cursor struct {
	data []byte
	pos  int
}

func newCursor(data []byte) *cursor {
	return &cursor{data: data}
}

func (c *cursor) eof() bool { return c.pos >= len(c.data) }

// attempt runs fn and rewinds to the starting position when it reports false.
func (c *cursor) attempt(fn func() bool) bool {
	save := c.pos
	if fn() {
		return true
	}
	c.pos = save
	return false
}

// char consumes b.
func (c *cursor) char(b byte) bool {
	if c.eof() || c.data[c.pos] != b {
		return false
	}
	c.pos++
	return true
}

// literal consumes s as a whole or nothing.
func (c *cursor) literal(s string) bool {
	if len(c.data)-c.pos < len(s) || string(c.data[c.pos:c.pos+len(s)]) != s {
		return false
	}
	c.pos += len(s)
	return true
}

// space consumes one ASCII whitespace byte.
func (c *cursor) space() bool {
	if c.eof() || !isSpace(c.data[c.pos]) {
		return false
	}
	c.pos++
	return true
}

// run consumes between min and max bytes satisfying pred, greedily. A max of
// zero means unbounded.
func (c *cursor) run(min, max int, pred func(byte) bool) ([]byte, bool) {
	start := c.pos
	end := start
	for end < len(c.data) && (max == 0 || end-start < max) && pred(c.data[end]) {
		end++
	}
	if end-start < min {
		return nil, false
	}
	c.pos = end
	return c.data[start:end], true
}

// digits consumes an exact-width run of decimal digits. A longer run is left
// for the next matcher to reject.
func (c *cursor) digits(n int) (int, bool) {
	b, ok := c.run(n, n, isDigit)
	if !ok {
		return 0, false
	}
	v := 0
	for _, d := range b {
		v = v*10 + int(d-'0')
	}
	return v, true
}

func (c *cursor) malformed(msg string) *ParseError {
	return &ParseError{Kind: KindMalformed, Offset: c.pos, Msg: msg}
}

// banner matches the service banner that follows the timestamp: one or more
// bytes other than ':', then ':' and one whitespace byte.
func (c *cursor) banner() error {
	ok := c.attempt(func() bool {
		if _, ok := c.run(1, 0, not(':')); !ok {
			return false
		}
		return c.char(':') && c.space()
	})
	if !ok {
		return c.malformed("expected service banner followed by \": \"")
	}
	return nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHex(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\f', '\r':
		return true
	}
	return false
}

func not(b byte) func(byte) bool {
	return func(x byte) bool { return x != b }
}
