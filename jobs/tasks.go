// Package jobs contains the asynq task definitions and worker wiring.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/shelfline/shelfline/internal/mail"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeConfirmationMail is the task type for confirmation emails.
	TaskTypeConfirmationMail = "mail:confirmation"
)

// ConfirmationMailPayload describes a queued confirmation email.
type ConfirmationMailPayload struct {
	To         string `json:"to"`
	Username   string `json:"username"`
	ConfirmURL string `json:"confirmUrl"`
}

// NewConfirmationMailTask constructs an Asynq task.
func NewConfirmationMailTask(payload ConfirmationMailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeConfirmationMail, data), nil
}

// JobObserver counts processed jobs for metrics.
type JobObserver interface {
	ObserveJob(task, outcome string)
}

// NewConfirmationMailHandler returns the handler processing confirmation
// emails. Delivery failures are returned so asynq retries with backoff;
// a malformed payload skips retrying.
func NewConfirmationMailHandler(sender mail.Sender, observer JobObserver) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ConfirmationMailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			if observer != nil {
				observer.ObserveJob(TaskTypeConfirmationMail, "malformed")
			}
			return asynq.SkipRetry
		}

		msg := mail.Message{
			To:      payload.To,
			Subject: "Confirm your email",
			Text:    fmt.Sprintf("Please confirm your email by clicking the link: %s", payload.ConfirmURL),
			HTML: fmt.Sprintf(
				`<p>Please confirm your email by clicking the link below:</p><a href="%s">%s</a>`,
				payload.ConfirmURL, payload.ConfirmURL),
		}
		if err := sender.Send(ctx, msg); err != nil {
			if observer != nil {
				observer.ObserveJob(TaskTypeConfirmationMail, "error")
			}
			return err
		}
		if observer != nil {
			observer.ObserveJob(TaskTypeConfirmationMail, "ok")
		}
		return nil
	}
}
