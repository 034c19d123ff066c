package oracle

import (
	"context"

	"github.com/campuslostfound/lostfound/internal/health"
)

// HealthCheck pings o when it can be pinged. A pure scoring function is always up.
func HealthCheck(o Oracle) health.Check {
	if p, ok := o.(health.Pinger); ok {
		return p.HealthPing
	}
	return func(context.Context) error { return nil }
}
