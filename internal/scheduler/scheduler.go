// Package scheduler owns the process-wide gocron scheduler. Maintenance jobs
// register themselves against it between Init and Start.
package scheduler

import (
	"errors"
	"sync"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrNotInitialized = errors.New("scheduler not initialized")

var (
	mu    sync.Mutex
	sched gocron.Scheduler
)

// Init creates the scheduler. Job panics are caught by gocron's listener and
// logged instead of taking the process down.
func Init() error {
	mu.Lock()
	defer mu.Unlock()
	if sched != nil {
		return nil
	}

	s, err := gocron.NewScheduler(
		gocron.WithGlobalJobOptions(
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithPanic(func(jobID uuid.UUID, jobName string, recoverData any) {
					log.Error().
						Str("job_id", jobID.String()).
						Str("job_name", jobName).
						Interface("panic", recoverData).
						Msg("Scheduler job panicked")
				}),
			),
		),
	)
	if err != nil {
		return err
	}
	sched = s
	log.Info().Msg("Scheduler initialized")
	return nil
}

// Start begins running registered jobs.
func Start() error {
	mu.Lock()
	defer mu.Unlock()
	if sched == nil {
		return ErrNotInitialized
	}
	log.Info().Msg("Scheduler starting")
	sched.Start()
	return nil
}

// Stop shuts the scheduler down and waits for in-flight jobs to finish.
// The scheduler cannot be restarted after Stop.
func Stop() error {
	mu.Lock()
	defer mu.Unlock()
	if sched == nil {
		return ErrNotInitialized
	}
	log.Info().Msg("Scheduler stopping")
	err := sched.Shutdown()
	sched = nil
	return err
}

// addJob registers a cron job, wrapping the task with start/finish logging.
func addJob(name, cronExpr string, task func()) error {
	mu.Lock()
	defer mu.Unlock()
	if sched == nil {
		return ErrNotInitialized
	}

	jobLogger := log.With().Str("job_name", name).Str("cron", cronExpr).Logger()
	_, err := sched.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			jobLogger.Debug().Msg("Scheduler job started")
			task()
			jobLogger.Debug().Msg("Scheduler job completed")
		}),
		gocron.WithName(name),
	)
	if err != nil {
		jobLogger.Error().Err(err).Msg("Failed to register scheduler job")
		return err
	}
	jobLogger.Info().Msg("Scheduler job registered")
	return nil
}
