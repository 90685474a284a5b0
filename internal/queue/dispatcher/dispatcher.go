package dispatcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/joblo-ai/backend/internal/domain"
	"github.com/joblo-ai/backend/internal/queue/client"
	"github.com/joblo-ai/backend/internal/queue/task"

	"github.com/hibiken/asynq"
)

// Dispatcher routes a generated code to the delivery queue matching the
// record's contact channel.
type Dispatcher struct{}

func New() *Dispatcher {
	return &Dispatcher{}
}

func (d *Dispatcher) DispatchCode(ctx context.Context, record *domain.CodeVerification, code string) error {
	queueClient := client.Shared()
	if queueClient == nil {
		return errors.New("queue client is not configured")
	}

	deliveryTask, err := d.buildTask(record, code)
	if err != nil {
		return fmt.Errorf("build delivery task failed: %w", err)
	}

	if _, err := queueClient.EnqueueContext(ctx, deliveryTask); err != nil {
		return fmt.Errorf("enqueue delivery task failed: %w", err)
	}

	return nil
}

func (d *Dispatcher) buildTask(record *domain.CodeVerification, code string) (*asynq.Task, error) {
	if record.Email.Valid && record.Email.String != "" {
		return task.NewSendEmailCodeTask(
			record.Email.String, string(record.Purpose), code, !record.IsOTPBased())
	}

	contact, err := record.ContactKey()
	if err != nil {
		return nil, err
	}

	return task.NewSendSMSCodeTask(contact, string(record.Purpose), code)
}
