package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReminders struct {
	calls     int
	olderThan time.Duration
	err       error
}

func (f *fakeReminders) SendUnreadReminders(ctx context.Context, olderThan time.Duration) (int, int, error) {
	f.calls++
	f.olderThan = olderThan
	return 2, 0, f.err
}

type fakeCleaner struct{ calls int }

func (f *fakeCleaner) CleanupExpiredRegistrations(ctx context.Context) (int64, error) {
	f.calls++
	return 3, nil
}

type fakeExpirer struct {
	calls int
	err   error
}

func (f *fakeExpirer) ExpireAssignments(ctx context.Context) (int64, error) {
	f.calls++
	return 0, f.err
}

func TestScheduler_AddAndRemove(t *testing.T) {
	s := NewScheduler(zap.NewNop())

	require.NoError(t, s.AddJob("b", "@every 1h", func() {}))
	require.NoError(t, s.AddJob("a", "@every 5m", func() {}))
	assert.Equal(t, []string{"a", "b"}, s.GetJobNames())

	t.Run("duplicate names are rejected", func(t *testing.T) {
		assert.Error(t, s.AddJob("a", "@every 1m", func() {}))
	})

	t.Run("invalid expressions are rejected", func(t *testing.T) {
		assert.Error(t, s.AddJob("bad", "not a cron", func() {}))
	})

	require.NoError(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetJobNames())
	assert.Error(t, s.RemoveJob("a"))
}

func TestScheduler_Register(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	job := NewRegistrationCleanupJob(&fakeCleaner{}, time.Second, zap.NewNop())

	require.NoError(t, s.Register("@every 1h", job))
	assert.Equal(t, []string{RegistrationCleanupJobName}, s.GetJobNames())

	s.Start()
	<-s.Stop().Done()
}

func TestMessageReminderJob_Run(t *testing.T) {
	t.Run("defaults the age to thirty minutes", func(t *testing.T) {
		f := &fakeReminders{}
		NewMessageReminderJob(f, 0, time.Second, zap.NewNop()).Run()
		assert.Equal(t, 1, f.calls)
		assert.Equal(t, 30*time.Minute, f.olderThan)
	})

	t.Run("errors do not panic", func(t *testing.T) {
		f := &fakeReminders{err: errors.New("db down")}
		job := NewMessageReminderJob(f, 10*time.Minute, time.Second, zap.NewNop())
		assert.NotPanics(t, job.Run)
		assert.Equal(t, 10*time.Minute, f.olderThan)
	})
}

func TestCleanupAndExpiryJobs_Run(t *testing.T) {
	cleaner := &fakeCleaner{}
	NewRegistrationCleanupJob(cleaner, time.Second, zap.NewNop()).Run()
	assert.Equal(t, 1, cleaner.calls)

	expirer := &fakeExpirer{err: errors.New("boom")}
	job := NewAssignmentExpiryJob(expirer, time.Second, zap.NewNop())
	assert.NotPanics(t, job.Run)
	assert.Equal(t, 1, expirer.calls)
	assert.Equal(t, AssignmentExpiryJobName, job.Name())
}
