// Package device limits how many devices and network addresses a subject
// may use.
//
// Devices are identified by an opaque server issued id. The first sighting
// of a new device is admitted only while the subject has fewer devices than
// its limit; devices already on record are always admitted and their
// fingerprint, IP and last seen time are refreshed. After each sighting the
// distinct IPs seen across all of the subject's devices within a trailing
// window (24 hours by default) are counted, and the request is denied when
// that count exceeds the IP limit. Devices are never evicted.
//
//	limiter := device.NewLimiter(device.NewPGStore(pool, 3))
//	err := limiter.CheckAndRecord(ctx, userID, deviceID, fingerprint, ip,
//		device.Limits{DeviceLimit: 1, IPLimit: 1})
package device
