package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/slapshotlabs/rinkside/internal/store"
)

// Hourly, off the top of the hour to avoid colliding with other on-the-hour
// maintenance.
const sessionPruneCron = "17 * * * *"

const sessionPruneTimeout = 30 * time.Second

// RegisterSessionPruneJob schedules the hourly removal of expired session
// rows. A signed cookie outliving its row is already rejected at request
// time; the prune just keeps the table from growing without bound.
func RegisterSessionPruneJob(st *store.Store) error {
	return addJob("session_prune", sessionPruneCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sessionPruneTimeout)
		defer cancel()

		removed, err := st.DeleteExpiredSessions(ctx, time.Now())
		if err != nil {
			log.Error().Err(err).Msg("Failed to prune expired sessions")
			return
		}
		if removed > 0 {
			log.Info().Int64("removed", removed).Msg("Pruned expired sessions")
		}
	})
}
