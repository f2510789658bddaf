package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/bigcity/rewardstrategy/internal/jobs"
)

const ackSubject = "We received your reward strategy request"

// LeadAcknowledgeJob mails the visitor a receipt for an accepted lead.
type LeadAcknowledgeJob struct {
	Mailer  Mailer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLeadAcknowledgeJob wires dependencies for the acknowledgement handler.
func NewLeadAcknowledgeJob(mailer Mailer, logger *slog.Logger, metrics *jobmetrics.Metrics) *LeadAcknowledgeJob {
	return &LeadAcknowledgeJob{Mailer: mailer, Logger: logger, Metrics: metrics}
}

// Handle processes TaskLeadAcknowledge tasks.
func (j *LeadAcknowledgeJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Mailer == nil {
		return errors.New("lead acknowledge: handler not configured")
	}
	var payload AcknowledgePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("lead acknowledge: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Email == "" {
		return fmt.Errorf("lead acknowledge: empty recipient: %w", asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(TaskLeadAcknowledge)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("company", payload.Company))
	if err := j.Mailer.Send(ctx, ackMessage(payload)); err != nil {
		logger.Error("send acknowledgement", slog.Any("error", err))
		return err
	}
	logger.Info("acknowledgement sent", slog.String("submitted_at", payload.SubmittedAt))
	return nil
}

func (j *LeadAcknowledgeJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func ackMessage(p AcknowledgePayload) Message {
	name := p.Name
	if name == "" {
		name = "there"
	}
	body := fmt.Sprintf(`Hi %s,

Thanks for requesting a festive reward strategy for %s.
We received your request at %s and our team is preparing your custom report.
You will receive it at this address shortly.

BigCity Promotions
Reward Strategy Experts
`, name, p.Company, p.SubmittedAt)
	return Message{To: p.Email, Subject: ackSubject, Body: body}
}
