package workers

import (
	"context"
	"time"

	"github.com/biileprince/ReferX/internal/repositories/interfaces"
	"github.com/biileprince/ReferX/pkg/logger"

	"github.com/robfig/cron/v3"
)

const ipCleanupSchedule = "0 2 * * *"

// IPCleanupWorker prunes IP history entries older than the retention
// period from every account, once a day at 02:00.
type IPCleanupWorker struct {
	userRepo  interfaces.UserRepository
	logger    *logger.Logger
	cron      *cron.Cron
	retention time.Duration
}

func NewIPCleanupWorker(userRepo interfaces.UserRepository, log *logger.Logger) *IPCleanupWorker {
	return &IPCleanupWorker{
		userRepo: userRepo,
		logger:   log,
		cron:     cron.New(),
	}
}

func (w *IPCleanupWorker) Start() error {
	_, err := w.cron.AddFunc(ipCleanupSchedule, w.Run)
	if err != nil {
		return err
	}

	w.cron.Start()
	w.logger.WithField("schedule", ipCleanupSchedule).Info("ip cleanup worker started")

	return nil
}

func (w *IPCleanupWorker) Stop() {
	ctx := w.cron.Stop()
	<-ctx.Done()
	w.logger.Info("ip cleanup worker stopped")
}

// Run performs one sweep. Exposed so operators can trigger it manually.
func (w *IPCleanupWorker) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().AddDate(0, -6, 0)

	modified, err := w.userRepo.PruneIPAddresses(ctx, cutoff)
	if err != nil {
		w.logger.WithError(err).Error("ip cleanup sweep failed")
		return
	}

	w.logger.WithFields(map[string]interface{}{
		"cutoff":            cutoff.Format(time.RFC3339),
		"accounts_modified": modified,
	}).Info("ip cleanup sweep completed")
}
