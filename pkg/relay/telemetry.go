package relay

import (
	"sync"
	"time"

	"github.com/robotalks/lstrelay/pkg/lst"
)

// TelemetryRecord holds the latest modem telemetry shared between tasks.
type TelemetryRecord struct {
	lock    sync.RWMutex
	latest  lst.Telemetry
	updated time.Time
	count   uint64
}

// Update stores a sample received at t.
func (r *TelemetryRecord) Update(sample *lst.Telemetry, t time.Time) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.latest, r.updated = *sample, t
	r.count++
}

// Latest returns the latest sample and when it was received. ok is false
// if no sample has been received yet.
func (r *TelemetryRecord) Latest() (sample lst.Telemetry, updated time.Time, ok bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.latest, r.updated, r.count > 0
}

// Count returns the number of samples received.
func (r *TelemetryRecord) Count() uint64 {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.count
}

// Stale reports whether no sample was received within maxAge before now.
func (r *TelemetryRecord) Stale(now time.Time, maxAge time.Duration) bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.count == 0 || now.Sub(r.updated) > maxAge
}
