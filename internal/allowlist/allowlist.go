package allowlist

import (
	"sort"
	"strings"
)

// Set is a fixed set of lowercase device names. It is read-only once built.
type Set struct {
	names map[string]struct{}
}

// New builds a Set from names, lower-casing and trimming each entry.
func New(names ...string) *Set {
	s := &Set{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if n != "" {
			s.names[n] = struct{}{}
		}
	}
	return s
}

// Contains reports whether the lowercase name is allowed.
func (s *Set) Contains(name string) bool {
	_, ok := s.names[name]
	return ok
}

// Len returns the number of names in s.
func (s *Set) Len() int { return len(s.names) }

// Names returns the members of s in sorted order.
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.names))
	for n := range s.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Default returns the built-in set of recognised device names.
func Default() *Set {
	return New(defaultNames...)
}

var defaultNames = []string{
	"adriennes-mbp",
	"adriennsmacbook",
	"adriennssiphone",
	"amaras-ipad",
	"ashleys-ipad",
	"ashleys-iphone",
	"ashleysplewatch",
	"benjaminsiphone",
	"bethany-i5",
	"bethanys-air",
	"bobbybonsiphone",
	"bobbysipadmini",
	"briannas-iphone",
	"brittanys-ipad",
	"brittanysiphone",
	"courtneysiphone",
	"crystalesiphone",
	"crystals-ipad",
	"dianas-ipad",
	"elainas-iphone",
	"ellies-iphone",
	"ericas-ipad",
	"hanks-ipad",
	"joe",
	"joshuas-ipad",
	"joshuas-iphone",
	"katharines-ipad",
	"kristens-ipad",
	"kristens-iphone",
	"kristi-anderson",
	"kristismithipad",
	"kristyns-iphone",
	"krystals-ipad",
	"lorrie",
	"lucindas-ipad",
	"mareans-ipad",
	"mareans-iphone",
	"meaganbtsiphone",
	"meagans-ipad",
	"megans-iphone",
	"missythang",
	"monicas-iphone",
	"monicas-mbp",
	"olivias-iphone",
	"olivias-phone",
	"pauls-ipad",
	"remastrssiphone",
	"robinhansiphone",
	"robins-ipad",
	"robins-iphone",
	"roslyns-iphone",
	"tolson",
	"wendys-ipad",
}
