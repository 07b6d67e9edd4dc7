package device

import "time"

// DefaultIPWindow is the trailing window used to count distinct IPs.
const DefaultIPWindow = 24 * time.Hour

// Record is one known device of a subject. The device id is the server
// issued cookie value and the only limiting key; the fingerprint is kept
// for auditing.
type Record struct {
	SubjectID   string    `json:"-"`
	DeviceID    string    `json:"device_id"`
	Fingerprint string    `json:"fingerprint"`
	IP          string    `json:"ip"`
	LastSeen    time.Time `json:"last_seen"`
}

// Limits are the allowances enforced for a subject. A zero IPLimit disables
// the IP check; a zero DeviceLimit admits no new device.
type Limits struct {
	DeviceLimit int
	IPLimit     int
}

// Sighting is a single request observed from a device.
type Sighting struct {
	SubjectID   string
	DeviceID    string
	Fingerprint string
	IP          string
	SeenAt      time.Time
}
