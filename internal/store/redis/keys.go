package redis

import "fmt"

const (
	// KeyPrefixRecord is the prefix for correlated record keys
	KeyPrefixRecord = "leasetrail:record:"
	// KeyPrefixDevice is the prefix for per-device record indexes
	KeyPrefixDevice = "leasetrail:device:"
	// KeyPrefixLease is the prefix for per-IP lease history
	KeyPrefixLease = "leasetrail:lease:"
	// KeyAllDevices is the set of every device name seen
	KeyAllDevices = "leasetrail:devices:all"
)

// RecordKey returns the key of the n-th record written by run.
func RecordKey(run string, n int64) string {
	return fmt.Sprintf("%s%s:%d", KeyPrefixRecord, run, n)
}

// DeviceKey returns the sorted set of record keys for a device name.
func DeviceKey(name string) string {
	return KeyPrefixDevice + name
}

// LeaseKey returns the sorted set of leases granted for ip.
func LeaseKey(ip string) string {
	return KeyPrefixLease + ip
}

// AllDevicesKey returns the key for the set of all device names
func AllDevicesKey() string {
	return KeyAllDevices
}

// LeaseMember encodes one lease grant as a sorted set member.
func LeaseMember(mac, at string) string {
	return mac + "@" + at
}
