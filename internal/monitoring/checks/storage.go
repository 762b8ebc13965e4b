package checks

import (
	"context"
	"time"

	"github.com/charlesng35/huddle/internal/monitoring"
	"github.com/charlesng35/huddle/internal/storage"
)

const storageProbePrefix = "_health/"

// Storage lists a reserved prefix to confirm the object store answers.
func Storage(store storage.ObjectStore, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("storage", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if store == nil {
			return monitoring.ProbeResult{Status: monitoring.StatusDown, Details: "storage not configured"}
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout))
		defer cancel()
		_, err := store.List(probeCtx, storageProbePrefix)
		return monitoring.ResultFromError(err, time.Since(start))
	})
}
