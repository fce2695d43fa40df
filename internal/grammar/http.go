package grammar

import (
	"github.com/MrSnakeDoc/leasetrail/internal/domain"
)

// ParseHTTP parses one proxy access line of the form
//
//	2016:04:03-23:59:59 publicwifi httpproxy[18500]: key="value" key2="value2"
//
// Pairs are separated by one whitespace byte; the last pair may instead end
// the input. Values cannot contain '"'.
func ParseHTTP(line []byte) (domain.HTTPRecord, error) {
	c := newCursor(line)

	ts, err := c.timestamp()
	if err != nil {
		return domain.HTTPRecord{}, err
	}
	if err := c.banner(); err != nil {
		return domain.HTTPRecord{}, err
	}

	attrs := make(map[string]string)
	for !c.eof() {
		key, value, err := c.attr()
		if err != nil {
			return domain.HTTPRecord{}, err
		}
		attrs[key] = value
	}
	return domain.HTTPRecord{Time: ts, Attrs: attrs}, nil
}

// attr matches key="value" followed by a separator or end of input.
func (c *cursor) attr() (string, string, error) {
	key, ok := c.run(1, 0, not('='))
	if !ok {
		return "", "", c.malformed("expected attribute name")
	}
	if !c.char('=') || !c.char('"') {
		return "", "", c.malformed("expected =\" after attribute name")
	}
	value, _ := c.run(0, 0, not('"'))
	if !c.char('"') {
		return "", "", c.malformed("unterminated attribute value")
	}
	if !c.eof() && !c.space() {
		return "", "", c.malformed("expected separator after attribute value")
	}
	return string(key), string(value), nil
}
