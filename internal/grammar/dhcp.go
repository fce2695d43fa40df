package grammar

import (
	"github.com/MrSnakeDoc/leasetrail/internal/domain"
)

const macLen = 17

// dhcpMessages is tried in order after the "DHCP" prefix. The first entry
// whose keyword and tail both match wins; a failed tail rewinds to just
// after "DHCP" before the next keyword is tried.
var dhcpMessages = []struct {
	keyword string
	kind    domain.DhcpKind
	tail    func(*cursor) *domain.Ack
}{
	{"INFORM", domain.DhcpInform, nil},
	{"OFFER", domain.DhcpOffer, nil},
	{"ACK", domain.DhcpAck, (*cursor).ackTail},
	{"NAK", domain.DhcpNak, nil},
	{"REQUEST", domain.DhcpRequest, nil},
	{"DISCOVER", domain.DhcpDiscover, nil},
}

// ackForms are the two DHCPACK surface forms written by gateway firmware:
//
//	DHCPACK on 192.168.0.254 to a4:db:30:66:4f:90
//	DHCPACK to 192.168.0.77 (9c:ad:97:d1:65:39)
//
// The closing ")" of the second form is optional.
var ackForms = []struct {
	lead, sep string
}{
	{"on ", "to "},
	{"to ", "("},
}

// ParseDHCP parses one DHCP gateway log line. Bytes after the recognised
// message are ignored.
func ParseDHCP(line []byte) (domain.DhcpLogEntry, error) {
	c := newCursor(line)

	ts, err := c.timestamp()
	if err != nil {
		return domain.DhcpLogEntry{}, err
	}
	if err := c.banner(); err != nil {
		return domain.DhcpLogEntry{}, err
	}

	ev, err := c.dhcpMessage()
	if err != nil {
		return domain.DhcpLogEntry{}, err
	}
	return domain.DhcpLogEntry{Time: ts, Event: ev}, nil
}

func (c *cursor) dhcpMessage() (domain.DhcpEvent, error) {
	if !c.literal("DHCP") {
		return domain.DhcpEvent{}, c.malformed("expected DHCP message keyword")
	}
	for _, m := range dhcpMessages {
		var ev domain.DhcpEvent
		ok := c.attempt(func() bool {
			if !c.literal(m.keyword) {
				return false
			}
			ev.Kind = m.kind
			if m.tail == nil {
				return true
			}
			ev.Ack = m.tail(c)
			return ev.Ack != nil
		})
		if ok {
			return ev, nil
		}
	}
	return domain.DhcpEvent{}, c.malformed("unrecognised DHCP message")
}

func (c *cursor) ackTail() *domain.Ack {
	for _, f := range ackForms {
		var ack *domain.Ack
		if c.attempt(func() bool {
			ack = c.ackForm(f.lead, f.sep)
			return ack != nil
		}) {
			return ack
		}
	}
	return nil
}

func (c *cursor) ackForm(lead, sep string) *domain.Ack {
	if !c.space() || !c.literal(lead) {
		return nil
	}
	ip, ok := c.ipAddr()
	if !ok || !c.space() || !c.literal(sep) {
		return nil
	}
	mac, ok := c.run(macLen, macLen, func(b byte) bool { return isHex(b) || b == ':' })
	if !ok {
		return nil
	}
	ack := &domain.Ack{IP: ip, MAC: string(mac)}
	if sep == "(" {
		c.char(')')
	}
	ack.DeviceName = c.deviceName()
	return ack
}

// ipAddr matches four dot-separated runs of one to three digits. Octets are
// not range checked.
func (c *cursor) ipAddr() (string, bool) {
	start := c.pos
	ok := c.attempt(func() bool {
		for i := 0; i < 4; i++ {
			if i > 0 && !c.char('.') {
				return false
			}
			if _, ok := c.run(1, 3, isDigit); !ok {
				return false
			}
		}
		return true
	})
	if !ok {
		return "", false
	}
	return string(c.data[start:c.pos]), true
}

// deviceName matches an optional " (<name>)" clause after the hardware
// address. A missing or unterminated clause yields "".
func (c *cursor) deviceName() string {
	var name []byte
	c.attempt(func() bool {
		if !c.space() || !c.char('(') {
			return false
		}
		var ok bool
		name, ok = c.run(1, 0, func(b byte) bool { return b != ')' && b != '(' && b != '\n' })
		return ok && c.char(')')
	})
	return string(name)
}
