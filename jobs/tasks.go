package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"github.com/bigcity/rewardstrategy/internal/leads"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLeadAcknowledge mails a receipt to a visitor whose lead was accepted.
	TaskLeadAcknowledge = "lead:acknowledge"
)

// AcknowledgePayload carries what the receipt mail needs.
type AcknowledgePayload struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Company     string `json:"company"`
	SubmittedAt string `json:"submittedAt"`
}

// AcknowledgeFromLead extracts the receipt fields from a submitted payload.
func AcknowledgeFromLead(p leads.Payload) AcknowledgePayload {
	return AcknowledgePayload{
		Name:        p.Name,
		Email:       p.Email,
		Company:     p.Company,
		SubmittedAt: p.Timestamp,
	}
}

// NewLeadAcknowledgeTask constructs an Asynq task.
func NewLeadAcknowledgeTask(payload AcknowledgePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadAcknowledge, data, asynq.MaxRetry(5), asynq.Timeout(time.Minute)), nil
}
