package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AssignmentExpiryJobName is the name of the supplier assignment expiry job
const AssignmentExpiryJobName = "assignment_expiry"

// AssignmentExpirer closes supplier assignments past their due date
type AssignmentExpirer interface {
	ExpireAssignments(ctx context.Context) (int64, error)
}

// AssignmentExpiryJob moves overdue supplier assignments to expired
type AssignmentExpiryJob struct {
	expirer AssignmentExpirer
	timeout time.Duration
	logger  *zap.Logger
}

func NewAssignmentExpiryJob(expirer AssignmentExpirer, timeout time.Duration, logger *zap.Logger) *AssignmentExpiryJob {
	return &AssignmentExpiryJob{expirer: expirer, timeout: timeout, logger: logger}
}

func (j *AssignmentExpiryJob) Name() string { return AssignmentExpiryJobName }

func (j *AssignmentExpiryJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	expired, err := j.expirer.ExpireAssignments(ctx)
	if err != nil {
		j.logger.Error("assignment expiry job failed", zap.Error(err))
		return
	}
	if expired > 0 {
		j.logger.Info("supplier assignments expired", zap.Int64("expired", expired))
	}
}
