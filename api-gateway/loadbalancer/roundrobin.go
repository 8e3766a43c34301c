package loadbalancer

import (
	"sync"

	"github.com/tair/cosmetics-recommender/pkg/logger"
)

// RoundRobin hands out upstream instances in rotation.
type RoundRobin struct {
	name    string
	servers []string
	current int
	mu      sync.Mutex
}

// NewRoundRobin creates a balancer over servers. An empty pool makes Next
// return "" so the proxy can answer 502 instead of guessing an address.
func NewRoundRobin(name string, servers []string) *RoundRobin {
	logger.Logger.Info().
		Str("upstream", name).
		Int("server_count", len(servers)).
		Strs("servers", servers).
		Msg("Round-robin load balancer initialized")

	return &RoundRobin{
		name:    name,
		servers: append([]string(nil), servers...),
	}
}

// Next returns the next server in round-robin order
func (rr *RoundRobin) Next() string {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if len(rr.servers) == 0 {
		return ""
	}

	server := rr.servers[rr.current]
	rr.current = (rr.current + 1) % len(rr.servers)
	return server
}

// Servers returns a copy of the pool.
func (rr *RoundRobin) Servers() []string {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	return append([]string{}, rr.servers...)
}

// Stats returns load balancer statistics
func (rr *RoundRobin) Stats() map[string]interface{} {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	return map[string]interface{}{
		"algorithm":     "round-robin",
		"upstream":      rr.name,
		"server_count":  len(rr.servers),
		"servers":       append([]string{}, rr.servers...),
		"current_index": rr.current,
	}
}
