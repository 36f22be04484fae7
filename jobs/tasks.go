package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/agrodash/agrodash/internal/accounts"
	jobmetrics "github.com/agrodash/agrodash/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAccountCreated fires once per bootstrapped account.
	TaskAccountCreated = "account:created"
)

// NewAccountCreatedTask constructs an Asynq task for the event.
func NewAccountCreatedTask(event accounts.AccountCreated) (*asynq.Task, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAccountCreated, data), nil
}

// AccountCreatedTaskID deduplicates events for the same user.
func AccountCreatedTaskID(userID string) string {
	return "account-created:" + userID
}

// Enqueuer submits tasks. *asynq.Client satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AccountEvents publishes account lifecycle events onto the queue.
type AccountEvents struct {
	enqueuer Enqueuer
}

// NewAccountEvents constructs the publisher.
func NewAccountEvents(enqueuer Enqueuer) *AccountEvents {
	return &AccountEvents{enqueuer: enqueuer}
}

// AccountCreated enqueues the event. A duplicate task ID means the event is
// already queued and is not an error.
func (p *AccountEvents) AccountCreated(ctx context.Context, event accounts.AccountCreated) error {
	if p == nil || p.enqueuer == nil {
		return nil
	}
	task, err := NewAccountCreatedTask(event)
	if err != nil {
		return err
	}
	_, err = p.enqueuer.EnqueueContext(ctx, task,
		asynq.Queue(QueueDefault),
		asynq.TaskID(AccountCreatedTaskID(event.UserID)),
		asynq.MaxRetry(5),
		asynq.Retention(24*time.Hour),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

var _ accounts.Publisher = (*AccountEvents)(nil)

// WelcomeJob sends the onboarding welcome notification for new accounts.
type WelcomeJob struct {
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewWelcomeJob wires dependencies for the welcome handler.
func NewWelcomeJob(logger *slog.Logger, metrics *jobmetrics.Metrics) *WelcomeJob {
	return &WelcomeJob{Logger: logger, Metrics: metrics}
}

// Handle processes TaskAccountCreated tasks.
func (j *WelcomeJob) Handle(ctx context.Context, t *asynq.Task) error {
	var event accounts.AccountCreated
	if err := json.Unmarshal(t.Payload(), &event); err != nil || event.UserID == "" {
		return asynq.SkipRetry
	}
	tracker := j.Metrics.Track(TaskAccountCreated)
	logger := j.logger().With(slog.String("user_id", event.UserID))
	if event.Email == "" {
		logger.Info("welcome skipped, account has no email")
		return tracker.End(nil)
	}
	logger.Info("welcome notification dispatched",
		slog.String("email", event.Email),
		slog.String("created_at", event.CreatedAt),
	)
	return tracker.End(ctx.Err())
}

func (j *WelcomeJob) logger() *slog.Logger {
	if j != nil && j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
