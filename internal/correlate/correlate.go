package correlate

import (
	"strings"

	"github.com/MrSnakeDoc/leasetrail/internal/domain"
	"github.com/MrSnakeDoc/leasetrail/internal/index"
)

// DefaultIPAttribute is the proxy attribute carrying the client address.
const DefaultIPAttribute = "srcip"

// AllowList is the membership test applied to lower-cased device names.
type AllowList interface {
	Contains(name string) bool
}

// Correlator joins HTTP records to the device that held the client IP when
// the request was logged. It only reads its collaborators.
type Correlator struct {
	idx    *index.Index
	dir    *index.Directory
	allow  AllowList
	ipAttr string
}

// New creates a Correlator. An empty ipAttr selects DefaultIPAttribute.
func New(idx *index.Index, dir *index.Directory, allow AllowList, ipAttr string) *Correlator {
	if ipAttr == "" {
		ipAttr = DefaultIPAttribute
	}
	return &Correlator{idx: idx, dir: dir, allow: allow, ipAttr: ipAttr}
}

// Correlate attributes rec to a device. When the reason is not domain.Kept
// the record is to be dropped and the returned value is empty.
func (c *Correlator) Correlate(rec domain.HTTPRecord) (domain.Correlated, domain.DropReason) {
	ip, ok := rec.Attrs[c.ipAttr]
	if !ok {
		return domain.Correlated{}, domain.DropNoIP
	}

	mac, ok := c.idx.Lookup(ip, rec.Time)
	if !ok {
		return domain.Correlated{}, domain.DropNoOwner
	}

	name, ok := c.dir.Name(mac)
	if !ok {
		return domain.Correlated{}, domain.DropNoName
	}

	name = strings.ToLower(name)
	if !c.allow.Contains(name) {
		return domain.Correlated{}, domain.DropNotAllowed
	}

	return domain.Correlated{Record: rec, MAC: mac, DeviceName: name}, domain.Kept
}
