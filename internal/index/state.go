package index

import "fmt"

// State is the serialisable form of a frozen Index and Directory.
type State struct {
	Timelines map[string][]Run  `json:"timelines"`
	Names     map[string]string `json:"names"`
}

// Export captures idx and dir. The returned maps share no memory with them.
func Export(idx *Index, dir *Directory) State {
	st := State{
		Timelines: make(map[string][]Run, len(idx.timelines)),
		Names:     make(map[string]string, len(dir.names)),
	}
	for ip := range idx.timelines {
		st.Timelines[ip] = idx.Timeline(ip)
	}
	for mac, name := range dir.names {
		st.Names[mac] = name
	}
	return st
}

// Restore rebuilds a frozen Index and Directory from st, rejecting timelines
// that are out of order or repeat a MAC in consecutive runs.
func Restore(st State) (*Index, *Directory, error) {
	timelines := make(map[string][]Run, len(st.Timelines))
	for ip, runs := range st.Timelines {
		for i := 1; i < len(runs); i++ {
			if runs[i].Start.Before(runs[i-1].Start) {
				return nil, nil, fmt.Errorf("timeline %s: run %d starts before run %d", ip, i, i-1)
			}
			if runs[i-1].MAC == runs[i].MAC {
				return nil, nil, fmt.Errorf("timeline %s: runs %d and %d share mac %s", ip, i-1, i, runs[i].MAC)
			}
		}
		cp := make([]Run, len(runs))
		copy(cp, runs)
		timelines[ip] = cp
	}

	names := make(map[string]string, len(st.Names))
	for mac, name := range st.Names {
		names[mac] = name
	}
	return &Index{timelines: timelines}, &Directory{names: names}, nil
}
