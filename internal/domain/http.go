package domain

import "sort"

// HTTPRecord is one parsed proxy access line.
//
// Attrs holds every key/value pair the line carried; a key repeated within a
// line keeps its last value.
type HTTPRecord struct {
	Time  Timestamp
	Attrs map[string]string
}

// Keys returns the attribute names of r in sorted order.
func (r HTTPRecord) Keys() []string {
	keys := make([]string, 0, len(r.Attrs))
	for k := range r.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Correlated is an HTTPRecord attributed to a physical device.
type Correlated struct {
	Record     HTTPRecord
	MAC        string
	DeviceName string // lower-cased
}

// DropReason explains why an HTTPRecord produced no Correlated output.
type DropReason int

const (
	Kept DropReason = iota
	DropNoIP
	DropNoOwner
	DropNoName
	DropNotAllowed
)

func (r DropReason) String() string {
	switch r {
	case Kept:
		return "kept"
	case DropNoIP:
		return "no_ip"
	case DropNoOwner:
		return "no_owner"
	case DropNoName:
		return "no_name"
	case DropNotAllowed:
		return "not_allowed"
	default:
		return "unknown"
	}
}
