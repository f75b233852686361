// Package health backs the /livez and /readyz endpoints. Probes run on a
// background ticker and flip between healthy and unhealthy using consecutive
// streaks, so a single slow database ping does not drop the service out of
// rotation.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports the health of one dependency. A nil return means healthy.
type CheckFunc func(ctx context.Context) error

const (
	// failStreak is how many consecutive failures mark a probe unhealthy.
	failStreak = 3
	// okStreak is how many consecutive passes mark it healthy again.
	okStreak = 1
)

// probe is one named check plus its current verdict. The ticker goroutine is
// the only writer; endpoint handlers read under the mutex.
type probe struct {
	name    string
	timeout time.Duration
	check   CheckFunc

	mu      sync.Mutex
	broken  bool
	lastErr error
	fails   int
	passes  int
}

func (p *probe) tick(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	err := p.check(ctx)
	cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastErr = err
	if err != nil {
		p.passes = 0
		if p.fails++; p.fails >= failStreak {
			p.broken = true
		}
		return
	}
	p.fails = 0
	if p.passes++; p.passes >= okStreak {
		p.broken = false
	}
}

// failure returns the probe's last error message when it is unhealthy.
func (p *probe) failure() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.broken {
		return "", false
	}
	if p.lastErr != nil {
		return p.lastErr.Error(), true
	}
	return "probe is unhealthy", true
}

// Health runs liveness and readiness probes for the service. The zero state
// is not ready; call SetReady(true) once startup finishes and SetReady(false)
// to drain before shutdown.
type Health struct {
	ready atomic.Bool

	mu        sync.Mutex
	liveness  []*probe
	readiness []*probe
	cancel    context.CancelFunc
}

// New returns a Health with no probes registered.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a probe answering "is this process still sane"
// (goroutine leaks, deadlocks). Failing liveness invites a restart.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, &probe{name: name, timeout: timeout, check: check})
}

// AddReadinessCheck registers a probe answering "can this process serve
// traffic right now" (database reachable, dependencies up).
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, &probe{name: name, timeout: timeout, check: check})
}

// Start launches one goroutine per registered probe, each re-running its
// check every interval. Register all probes before calling Start.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.cancel = cancel
	probes := append(append([]*probe(nil), h.liveness...), h.readiness...)
	h.mu.Unlock()

	for _, p := range probes {
		go func(p *probe) {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			p.tick(ctx)
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					p.tick(ctx)
				}
			}
		}(p)
	}
}

// Stop cancels the probe goroutines. Safe to call more than once.
func (h *Health) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
}

// SetReady flips the manual readiness gate.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports whether the gate is open and every readiness probe passes.
func (h *Health) IsReady() bool {
	if !h.ready.Load() {
		return false
	}
	h.mu.Lock()
	probes := h.readiness
	h.mu.Unlock()

	for _, p := range probes {
		if _, bad := p.failure(); bad {
			return false
		}
	}
	return true
}

type probeReport struct {
	Status   string            `json:"status"`
	Failures map[string]string `json:"failures,omitempty"`
}

// LiveEndpoint serves /livez: 200 while every liveness probe passes, 503 with
// the failing probes otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	probes := h.liveness
	h.mu.Unlock()

	writeReport(w, collect(probes))
}

// ReadyEndpoint serves /readyz: 200 while the service is marked ready and
// every readiness probe passes.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	h.mu.Lock()
	probes := h.readiness
	h.mu.Unlock()

	failures := collect(probes)
	if !h.ready.Load() {
		failures["service"] = "not ready"
	}
	writeReport(w, failures)
}

func collect(probes []*probe) map[string]string {
	failures := make(map[string]string)
	for _, p := range probes {
		if msg, bad := p.failure(); bad {
			failures[p.name] = msg
		}
	}
	return failures
}

func writeReport(w http.ResponseWriter, failures map[string]string) {
	report := probeReport{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		report = probeReport{Status: "unhealthy", Failures: failures}
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(report)
}
