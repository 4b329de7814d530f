// Package sweep schedules the daily decay batch run.
package sweep

import (
	"context"
	"time"

	"github.com/quoteworks/creditledger/internal/ledger"

	log "github.com/sirupsen/logrus"
)

// Runner fires the daily decay sweep at UTC midnight and every 24 hours
// thereafter. The sweep itself is idempotent per account per day, so an
// overlapping manual trigger or a restart never double-charges.
type Runner struct {
	service *ledger.Service
	stop    chan struct{}
	done    chan struct{}
}

// NewRunner constructs a Runner.
func NewRunner(service *ledger.Service) *Runner {
	return &Runner{
		service: service,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// NextMidnightUTC returns the first UTC midnight after the given instant.
func NextMidnightUTC(now time.Time) time.Time {
	u := now.UTC()
	return time.Date(u.Year(), u.Month(), u.Day()+1, 0, 0, 0, 0, time.UTC)
}

// Start launches the scheduler goroutine.
func (r *Runner) Start(ctx context.Context) {
	go r.loop(ctx)
	log.Info("decay sweep scheduler started")
}

// Stop terminates the scheduler and waits for the loop to exit.
func (r *Runner) Stop() {
	close(r.stop)
	<-r.done
	log.Info("decay sweep scheduler stopped")
}

func (r *Runner) loop(ctx context.Context) {
	defer close(r.done)

	timer := time.NewTimer(time.Until(NextMidnightUTC(time.Now())))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stop:
			return
		case <-timer.C:
			r.runOnce(ctx)
			timer.Reset(time.Until(NextMidnightUTC(time.Now())))
		}
	}
}

func (r *Runner) runOnce(ctx context.Context) {
	report, errRun := r.service.RunDailyDecay(ctx)
	if errRun != nil {
		log.WithError(errRun).Error("scheduled decay sweep failed")
		return
	}
	log.WithFields(log.Fields{
		"processed":  report.AccountsProcessed,
		"downgraded": report.AccountsDowngraded,
	}).Info("scheduled decay sweep completed")
}
