package utils

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// ParseHostNoPort returns the host part (no port) from strings like "ip:port", "[v6]:port", or "ip".
func ParseHostNoPort(s string) string {
	if s == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(s); err == nil {
		return h
	}
	return s
}

// FirstForwardedFor returns the first IP from X-Forwarded-For (left-most), trimmed.
func FirstForwardedFor(xff string) string {
	first, _, _ := strings.Cut(xff, ",")
	return strings.TrimSpace(first)
}

// ClientIP resolves the real client IP.
// If trustProxy is true, prefers X-Forwarded-For (first), then X-Real-IP.
// Otherwise falls back to RemoteAddr only.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if v := FirstForwardedFor(r.Header.Get("X-Forwarded-For")); v != "" {
			return ParseHostNoPort(v)
		}
		if v := strings.TrimSpace(r.Header.Get("X-Real-IP")); v != "" {
			return ParseHostNoPort(v)
		}
	}
	return ParseHostNoPort(r.RemoteAddr)
}

// IPMatcher matches exact IPs and CIDRs.
type IPMatcher struct {
	prefixes []netip.Prefix
}

// NewIPMatcher builds a matcher from IPs and CIDRs. Entries that are
// neither are skipped.
func NewIPMatcher(list []string) *IPMatcher {
	m := &IPMatcher{}
	for _, raw := range list {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		if p, err := netip.ParsePrefix(s); err == nil {
			m.prefixes = append(m.prefixes, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(s); err == nil {
			a = a.Unmap()
			m.prefixes = append(m.prefixes, netip.PrefixFrom(a, a.BitLen()))
		}
	}
	return m
}

func (m *IPMatcher) IsEmpty() bool {
	return len(m.prefixes) == 0
}

func (m *IPMatcher) Allow(ipStr string) bool {
	a, err := netip.ParseAddr(ipStr)
	if err != nil {
		return false
	}
	a = a.Unmap()
	for _, p := range m.prefixes {
		if p.Contains(a) {
			return true
		}
	}
	return false
}
