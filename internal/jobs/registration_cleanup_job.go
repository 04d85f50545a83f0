package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RegistrationCleanupJobName is the name of the expired signup cleanup job
const RegistrationCleanupJobName = "registration_cleanup"

// RegistrationCleaner deletes pending signups whose code expired
type RegistrationCleaner interface {
	CleanupExpiredRegistrations(ctx context.Context) (int64, error)
}

// RegistrationCleanupJob removes expired pending registrations
type RegistrationCleanupJob struct {
	cleaner RegistrationCleaner
	timeout time.Duration
	logger  *zap.Logger
}

func NewRegistrationCleanupJob(cleaner RegistrationCleaner, timeout time.Duration, logger *zap.Logger) *RegistrationCleanupJob {
	return &RegistrationCleanupJob{cleaner: cleaner, timeout: timeout, logger: logger}
}

func (j *RegistrationCleanupJob) Name() string { return RegistrationCleanupJobName }

func (j *RegistrationCleanupJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	deleted, err := j.cleaner.CleanupExpiredRegistrations(ctx)
	if err != nil {
		j.logger.Error("registration cleanup job failed", zap.Error(err))
		return
	}
	if deleted > 0 {
		j.logger.Info("expired registrations deleted", zap.Int64("deleted", deleted))
	}
}
