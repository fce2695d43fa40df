package index

import (
	"sort"

	"github.com/MrSnakeDoc/leasetrail/internal/domain"
)

// Index answers point-in-time IP -> hardware address queries. It is never
// mutated after Finalize, so concurrent readers need no locking.
type Index struct {
	timelines map[string][]Run // IP -> runs, strictly increasing Start
}

// Lookup returns the MAC of the last run that started strictly before at.
// A lease change logged in the same second as a request is not yet in
// effect for that request.
func (idx *Index) Lookup(ip string, at domain.Timestamp) (string, bool) {
	runs := idx.timelines[ip]
	i := sort.Search(len(runs), func(i int) bool {
		return !runs[i].Start.Before(at)
	})
	if i == 0 {
		return "", false
	}
	return runs[i-1].MAC, true
}

// Timeline returns a copy of the runs for ip, oldest first.
func (idx *Index) Timeline(ip string) []Run {
	runs := idx.timelines[ip]
	if len(runs) == 0 {
		return nil
	}
	out := make([]Run, len(runs))
	copy(out, runs)
	return out
}

// IPs returns every indexed IP in sorted order.
func (idx *Index) IPs() []string {
	ips := make([]string, 0, len(idx.timelines))
	for ip := range idx.timelines {
		ips = append(ips, ip)
	}
	sort.Strings(ips)
	return ips
}

// Count returns the number of indexed IPs.
func (idx *Index) Count() int { return len(idx.timelines) }

// RunCount returns the total number of runs across all IPs.
func (idx *Index) RunCount() int {
	n := 0
	for _, runs := range idx.timelines {
		n += len(runs)
	}
	return n
}

// Directory maps a hardware address to the first device name seen for it.
type Directory struct {
	names map[string]string
}

// Name returns the retained device name for mac.
func (d *Directory) Name(mac string) (string, bool) {
	name, ok := d.names[mac]
	return name, ok
}

// Count returns the number of named hardware addresses.
func (d *Directory) Count() int { return len(d.names) }
