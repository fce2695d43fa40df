package index

import (
	"sort"

	"github.com/MrSnakeDoc/leasetrail/internal/domain"
)

// Run is the instant a hardware address started holding an IP.
type Run struct {
	Start domain.Timestamp `json:"start"`
	MAC   string           `json:"mac"`
}

// ConflictFunc is told about a hardware address seen with a second, different
// device name. The first name is kept.
type ConflictFunc func(mac, kept, rejected string)

// Builder accumulates DHCP acknowledgements. It is owned by a single
// goroutine and is frozen into an Index and a Directory by Finalize.
type Builder struct {
	raw        map[string][]Run // IP -> acks in arrival order
	names      map[string]string
	onConflict ConflictFunc
	acks       int
	conflicts  int
	finalized  bool
}

// NewBuilder creates an empty builder. onConflict may be nil.
func NewBuilder(onConflict ConflictFunc) *Builder {
	return &Builder{
		raw:        make(map[string][]Run),
		names:      make(map[string]string),
		onConflict: onConflict,
	}
}

// Add records e if it is an Ack and reports whether it was one.
func (b *Builder) Add(e domain.DhcpLogEntry) bool {
	if b.finalized {
		panic("index: Add called after Finalize")
	}
	ack, ok := e.AckPayload()
	if !ok {
		return false
	}
	b.acks++
	b.raw[ack.IP] = append(b.raw[ack.IP], Run{Start: e.Time, MAC: ack.MAC})

	if ack.DeviceName != "" {
		b.addName(ack.MAC, ack.DeviceName)
	}
	return true
}

func (b *Builder) addName(mac, name string) {
	kept, seen := b.names[mac]
	if !seen {
		b.names[mac] = name
		return
	}
	if kept != name {
		b.conflicts++
		if b.onConflict != nil {
			b.onConflict(mac, kept, name)
		}
	}
}

// Acks returns the number of Ack events added so far.
func (b *Builder) Acks() int { return b.acks }

// Conflicts returns the number of device name conflicts seen so far.
func (b *Builder) Conflicts() int { return b.conflicts }

// Finalize orders every IP's acks in time, collapses them into runs and
// returns the read-only results. The builder must not be used afterwards.
func (b *Builder) Finalize() (*Index, *Directory) {
	b.finalized = true

	timelines := make(map[string][]Run, len(b.raw))
	for ip, raw := range b.raw {
		timelines[ip] = Compress(raw)
	}
	idx := &Index{timelines: timelines}
	dir := &Directory{names: b.names}

	b.raw, b.names = nil, nil
	return idx, dir
}

// Compress stable-sorts raw by start time and keeps an entry only when its
// MAC differs from the entry before it. The first entry is always kept.
// raw is sorted in place.
func Compress(raw []Run) []Run {
	sort.SliceStable(raw, func(i, j int) bool {
		return raw[i].Start.Before(raw[j].Start)
	})

	runs := make([]Run, 0, len(raw))
	for i, r := range raw {
		if i == 0 || r.MAC != raw[i-1].MAC {
			runs = append(runs, r)
		}
	}
	return runs
}
