package fetch

import (
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// DefaultBreakerThreshold is the number of consecutive failures that opens
// the breaker for a host.
const DefaultBreakerThreshold = 5

// breakerSet holds one circuit breaker per host.
type breakerSet struct {
	threshold int64
	mu        sync.RWMutex
	breakers  map[string]*circuit.Breaker
}

func newBreakerSet(threshold int64) *breakerSet {
	return &breakerSet{threshold: threshold, breakers: make(map[string]*circuit.Breaker)}
}

func (s *breakerSet) get(host string) *circuit.Breaker {
	s.mu.RLock()
	b, ok := s.breakers[host]
	s.mu.RUnlock()
	if ok {
		return b
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.breakers[host]; ok {
		return b
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 10 * time.Second
	expBackoff.MaxInterval = 2 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	b = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(s.threshold),
	})
	s.breakers[host] = b
	return b
}

// States reports "open" or "closed" per host.
func (s *breakerSet) States() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	states := make(map[string]string, len(s.breakers))
	for host, b := range s.breakers {
		if b.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}
