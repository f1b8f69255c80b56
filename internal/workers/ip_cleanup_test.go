package workers

import (
	"context"
	"testing"
	"time"

	"github.com/biileprince/ReferX/internal/repositories/interfaces"
	"github.com/biileprince/ReferX/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pruneRecorder struct {
	interfaces.UserRepository
	cutoff   time.Time
	modified int64
}

func (r *pruneRecorder) PruneIPAddresses(ctx context.Context, olderThan time.Time) (int64, error) {
	r.cutoff = olderThan
	return r.modified, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Format: "text"})
	require.NoError(t, err)
	return log
}

func TestRunPrunesSixMonthsBack(t *testing.T) {
	repo := &pruneRecorder{modified: 3}
	worker := NewIPCleanupWorker(repo, testLogger(t))

	worker.Run()

	expected := time.Now().AddDate(0, -6, 0)
	assert.WithinDuration(t, expected, repo.cutoff, time.Minute)
}

func TestStartAndStop(t *testing.T) {
	repo := &pruneRecorder{}
	worker := NewIPCleanupWorker(repo, testLogger(t))

	require.NoError(t, worker.Start())
	worker.Stop()
}
