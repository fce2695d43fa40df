package domain

// DhcpKind tags the DHCP message variant carried by a log line.
type DhcpKind int

const (
	DhcpInform DhcpKind = iota + 1
	DhcpOffer
	DhcpAck
	DhcpNak
	DhcpRequest
	DhcpDiscover
)

func (k DhcpKind) String() string {
	switch k {
	case DhcpInform:
		return "DHCPINFORM"
	case DhcpOffer:
		return "DHCPOFFER"
	case DhcpAck:
		return "DHCPACK"
	case DhcpNak:
		return "DHCPNAK"
	case DhcpRequest:
		return "DHCPREQUEST"
	case DhcpDiscover:
		return "DHCPDISCOVER"
	default:
		return "UNKNOWN"
	}
}

// Ack is the payload of a DHCPACK: the lease grant of IP to MAC.
type Ack struct {
	IP         string
	MAC        string
	DeviceName string // empty when the line carried no name
}

// DhcpEvent is a tagged variant. Ack is non-nil only when Kind == DhcpAck.
type DhcpEvent struct {
	Kind DhcpKind
	Ack  *Ack
}

// DhcpLogEntry is one successfully parsed DHCP log line.
type DhcpLogEntry struct {
	Time  Timestamp
	Event DhcpEvent
}

// AckPayload returns the Ack of e, if any.
func (e DhcpLogEntry) AckPayload() (Ack, bool) {
	if e.Event.Kind != DhcpAck || e.Event.Ack == nil {
		return Ack{}, false
	}
	return *e.Event.Ack, true
}
