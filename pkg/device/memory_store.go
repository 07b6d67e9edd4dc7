package device

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore keeps device records in process memory with one lock per
// subject.
type MemoryStore struct {
	mu       sync.Mutex
	subjects map[string]*subjectDevices
}

type subjectDevices struct {
	mu      sync.Mutex
	devices map[string]Record
	// last sighting per (device, ip) pair
	ips map[deviceIP]time.Time
}

type deviceIP struct {
	device string
	ip     string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subjects: make(map[string]*subjectDevices)}
}

func (s *MemoryStore) subject(id string) *subjectDevices {
	s.mu.Lock()
	defer s.mu.Unlock()

	sd, ok := s.subjects[id]
	if !ok {
		sd = &subjectDevices{
			devices: make(map[string]Record),
			ips:     make(map[deviceIP]time.Time),
		}
		s.subjects[id] = sd
	}
	return sd
}

func (s *MemoryStore) lookup(id string) (*subjectDevices, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sd, ok := s.subjects[id]
	return sd, ok
}

func (s *MemoryStore) Record(_ context.Context, in Sighting, limits Limits, since time.Time) error {
	sd := s.subject(in.SubjectID)
	sd.mu.Lock()
	defer sd.mu.Unlock()

	if _, known := sd.devices[in.DeviceID]; !known && len(sd.devices) >= limits.DeviceLimit {
		return ErrDeviceLimitReached
	}

	sd.devices[in.DeviceID] = Record{
		SubjectID:   in.SubjectID,
		DeviceID:    in.DeviceID,
		Fingerprint: in.Fingerprint,
		IP:          in.IP,
		LastSeen:    in.SeenAt,
	}
	sd.ips[deviceIP{device: in.DeviceID, ip: in.IP}] = in.SeenAt

	if limits.IPLimit <= 0 {
		return nil
	}
	recent := make(map[string]struct{})
	for key, seen := range sd.ips {
		if seen.After(since) {
			recent[key.ip] = struct{}{}
		}
	}
	if len(recent) > limits.IPLimit {
		return ErrIPLimitReached
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context, subjectID string) ([]Record, error) {
	sd, ok := s.lookup(subjectID)
	if !ok {
		return []Record{}, nil
	}
	sd.mu.Lock()
	defer sd.mu.Unlock()

	out := make([]Record, 0, len(sd.devices))
	for _, r := range sd.devices {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b Record) int {
		return b.LastSeen.Compare(a.LastSeen)
	})
	return out, nil
}
