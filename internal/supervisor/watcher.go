package supervisor

import (
	"context"
	"fmt"
	"time"
)

// WatchParameters polls the external store for parameter changes and
// refreshes the handles that drifted. It blocks until ctx is done. An
// interval of zero or less disables watching and returns immediately.
func (s *Supervisor) WatchParameters(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.refreshChangedParameters(ctx)
		}
	}
}

func (s *Supervisor) refreshChangedParameters(ctx context.Context) {
	for _, p := range s.params.All() {
		if !p.HasChanged(ctx) {
			continue
		}
		if err := p.ForceUpdate(ctx); err != nil {
			_ = s.Log(fmt.Sprintf("failed to refresh parameter %q: %v", p.Name(), err), SeverityWarn)
			continue
		}
		s.logger.Debug().Str("parameter", p.Name()).
			Msgf("[%s] parameter refreshed from store", s.name)
	}
}
