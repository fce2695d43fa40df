package grammar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/leasetrail/internal/domain"
)

func TestParseDHCPAckMissingParen(t *testing.T) {
	line := []byte("2015:06:03-00:01:00 PublicWiFi dhcpd: DHCPACK to 192.168.0.77 (9c:ad:97:d1:65:39")

	entry, err := ParseDHCP(line)
	require.NoError(t, err)
	assert.True(t, entry.Time.Equal(domain.MustTimestamp(2015, 6, 3, 0, 1, 0)))

	ack, ok := entry.AckPayload()
	require.True(t, ok)
	assert.Equal(t, domain.Ack{IP: "192.168.0.77", MAC: "9c:ad:97:d1:65:39"}, ack)
}

func TestParseDHCPAckForms(t *testing.T) {
	tests := []struct {
		name string
		tail string
		want domain.Ack
	}{
		{
			name: "on ip to mac",
			tail: "DHCPACK on 192.168.0.254 to a4:db:30:66:4f:90",
			want: domain.Ack{IP: "192.168.0.254", MAC: "a4:db:30:66:4f:90"},
		},
		{
			name: "to ip (mac)",
			tail: "DHCPACK to 192.168.0.77 (9c:ad:97:d1:65:39)",
			want: domain.Ack{IP: "192.168.0.77", MAC: "9c:ad:97:d1:65:39"},
		},
		{
			name: "on ip to mac with device name",
			tail: "DHCPACK on 10.0.0.5 to aa:bb:cc:dd:ee:ff (Joes-iPhone) via eth0",
			want: domain.Ack{IP: "10.0.0.5", MAC: "aa:bb:cc:dd:ee:ff", DeviceName: "Joes-iPhone"},
		},
		{
			name: "to ip (mac) with device name",
			tail: "DHCPACK to 10.0.0.6 (aa:bb:cc:dd:ee:01) (lorrie)",
			want: domain.Ack{IP: "10.0.0.6", MAC: "aa:bb:cc:dd:ee:01", DeviceName: "lorrie"},
		},
		{
			name: "unterminated name clause ignored",
			tail: "DHCPACK on 10.0.0.5 to aa:bb:cc:dd:ee:ff (joe",
			want: domain.Ack{IP: "10.0.0.5", MAC: "aa:bb:cc:dd:ee:ff"},
		},
		{
			name: "octets are not range checked",
			tail: "DHCPACK on 999.1.22.333 to 0123456789abcdefA",
			want: domain.Ack{IP: "999.1.22.333", MAC: "0123456789abcdefA"},
		},
		{
			name: "mac character class only",
			tail: "DHCPACK on 1.2.3.4 to :::::::::::::::::",
			want: domain.Ack{IP: "1.2.3.4", MAC: ":::::::::::::::::"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry, err := ParseDHCP([]byte("2015:06:03-00:01:00 gw dhcpd: " + tt.tail))
			require.NoError(t, err)
			ack, ok := entry.AckPayload()
			require.True(t, ok)
			assert.Equal(t, tt.want, ack)
		})
	}
}

func TestParseDHCPKeywords(t *testing.T) {
	tests := []struct {
		tail string
		want domain.DhcpKind
	}{
		{"DHCPINFORM", domain.DhcpInform},
		{"DHCPOFFER", domain.DhcpOffer},
		{"DHCPNAK", domain.DhcpNak},
		{"DHCPREQUEST", domain.DhcpRequest},
		{"DHCPDISCOVER", domain.DhcpDiscover},
		{"DHCPDISCOVER from 9c:ad:97:d1:65:39 via eth1", domain.DhcpDiscover},
	}

	for _, tt := range tests {
		t.Run(tt.tail, func(t *testing.T) {
			entry, err := ParseDHCP([]byte("2015:06:03-00:01:00 gw dhcpd: " + tt.tail))
			require.NoError(t, err)
			assert.Equal(t, tt.want, entry.Event.Kind)
			assert.Nil(t, entry.Event.Ack)
		})
	}
}

func TestParseDHCPFailures(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "unknown keyword", line: "2015:06:03-00:01:00 gw dhcpd: DHCPRELEASE of 1.2.3.4"},
		{name: "no DHCP prefix", line: "2015:06:03-00:01:00 gw dhcpd: hello"},
		{name: "ack without tail", line: "2015:06:03-00:01:00 gw dhcpd: DHCPACK"},
		{name: "ack mixed forms", line: "2015:06:03-00:01:00 gw dhcpd: DHCPACK on 1.2.3.4 (aa:bb:cc:dd:ee:ff"},
		{name: "ack short mac", line: "2015:06:03-00:01:00 gw dhcpd: DHCPACK on 1.2.3.4 to aa:bb:cc:dd:ee:f"},
		{name: "ack four digit octet", line: "2015:06:03-00:01:00 gw dhcpd: DHCPACK on 1.2.3.4444 to aa:bb:cc:dd:ee:ff"},
		{name: "ack three octets", line: "2015:06:03-00:01:00 gw dhcpd: DHCPACK on 1.2.3 to aa:bb:cc:dd:ee:ff"},
		{name: "missing banner", line: "2015:06:03-00:01:00: DHCPOFFER"},
		{name: "banner without space", line: "2015:06:03-00:01:00 gw dhcpd:DHCPOFFER"},
		{name: "bad timestamp", line: "2015:06:31-00:01:00 gw dhcpd: DHCPOFFER"},
		{name: "empty", line: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDHCP([]byte(tt.line))
			assert.Error(t, err)
		})
	}
}

func TestIPAddrRewindsOnFailure(t *testing.T) {
	c := newCursor([]byte("1.2.x.4"))
	_, ok := c.ipAddr()
	assert.False(t, ok)
	assert.Equal(t, 0, c.pos)
}
