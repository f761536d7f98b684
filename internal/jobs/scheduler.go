package job

import (
	"fmt"

	config "github.com/maheshrc27/postpilot/configs"
	"github.com/robfig/cron"
)

// NewScheduler returns a cron instance with every periodic job added. The
// caller starts and stops it.
func NewScheduler(cfg config.Schedule, pipeline *PipelineJob, tokens *TokenRefreshJob) (*cron.Cron, error) {
	c := cron.New()

	entries := []struct {
		name string
		spec string
		fn   func()
	}{
		{"pipeline", cfg.PipelineSpec, pipeline.RunDue},
		{"token refresh", cfg.TokenRefreshSpec, tokens.RefreshTokens},
		{"stale runs", cfg.StaleRunSpec, pipeline.SweepStaleRuns},
	}

	for _, e := range entries {
		if err := c.AddFunc(e.spec, e.fn); err != nil {
			return nil, fmt.Errorf("schedule %s job %q: %w", e.name, e.spec, err)
		}
	}

	return c, nil
}
