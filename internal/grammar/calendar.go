package grammar

import "github.com/MrSnakeDoc/leasetrail/internal/domain"

// timestampFields describes YYYY:MM:DD-hh:mm:ss as digit widths and the
// separator that follows each field.
var timestampFields = [6]struct {
	width int
	sep   byte
}{
	{4, ':'}, {2, ':'}, {2, '-'},
	{2, ':'}, {2, ':'}, {2, 0},
}

// timestamp matches YYYY:MM:DD-hh:mm:ss. On failure nothing is consumed.
func (c *cursor) timestamp() (domain.Timestamp, error) {
	start := c.pos
	var v [6]int
	ok := c.attempt(func() bool {
		for i, f := range timestampFields {
			n, ok := c.digits(f.width)
			if !ok {
				return false
			}
			v[i] = n
			if f.sep != 0 && !c.char(f.sep) {
				return false
			}
		}
		return true
	})
	if !ok {
		return domain.Timestamp{}, c.malformed("expected YYYY:MM:DD-hh:mm:ss")
	}

	ts, err := domain.NewTimestamp(v[0], v[1], v[2], v[3], v[4], v[5])
	if err != nil {
		c.pos = start
		return domain.Timestamp{}, &ParseError{Kind: KindOutOfRange, Offset: start, Msg: err.Error()}
	}
	return ts, nil
}

// ParseTimestamp parses a complete YYYY:MM:DD-hh:mm:ss token.
func ParseTimestamp(s string) (domain.Timestamp, error) {
	c := newCursor([]byte(s))
	ts, err := c.timestamp()
	if err != nil {
		return domain.Timestamp{}, err
	}
	if !c.eof() {
		return domain.Timestamp{}, c.malformed("trailing data after timestamp")
	}
	return ts, nil
}
