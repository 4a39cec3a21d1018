// Package breaker guards connectors with a circuit breaker so a source that keeps failing is
// skipped cheaply until it cools down.
package breaker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"ArticleHunter/internal/domain"
	"ArticleHunter/internal/ports"
)

// Settings configures when the breaker opens and for how long.
type Settings struct {
	// ConsecutiveFailures opens the breaker; zero disables wrapping.
	ConsecutiveFailures uint32
	// OpenFor is how long polls fail fast before one trial poll is let through.
	OpenFor time.Duration
}

// Connector decorates another connector.
type Connector struct {
	next ports.Connector
	cb   *gobreaker.CircuitBreaker
}

var _ ports.Connector = (*Connector)(nil)

// Wrap returns next unchanged when the breaker is disabled.
func Wrap(next ports.Connector, s Settings, log *slog.Logger) ports.Connector {
	if s.ConsecutiveFailures == 0 {
		return next
	}
	threshold := s.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        next.Name(),
		MaxRequests: 1,
		Timeout:     s.OpenFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if log != nil {
				log.Warn("connector breaker state changed", "source", name, "from", from.String(), "to", to.String())
			}
		},
	})
	return &Connector{next: next, cb: cb}
}

func (c *Connector) Name() string {
	return c.next.Name()
}

// Poll runs the wrapped poll through the breaker. While open it fails without any I/O.
func (c *Connector) Poll(ctx context.Context, keywords []domain.Keyword) ([]domain.RawItem, error) {
	out, err := c.cb.Execute(func() (interface{}, error) {
		return c.next.Poll(ctx, keywords)
	})
	if err != nil {
		return nil, fmt.Errorf("breaker %s: %w", c.Name(), err)
	}
	items, _ := out.([]domain.RawItem)
	return items, nil
}

// State exposes the breaker state for diagnostics.
func (c *Connector) State() gobreaker.State {
	return c.cb.State()
}
