package processor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/joblo-ai/backend/internal/queue/task"
	"github.com/joblo-ai/backend/internal/worker"

	"github.com/hibiken/asynq"
)

type sendEmailCodeProcessor struct {
	workers *worker.Workers
}

func NewSendEmailCodeProcessor(workers *worker.Workers) *sendEmailCodeProcessor {
	return &sendEmailCodeProcessor{
		workers: workers,
	}
}

func (p *sendEmailCodeProcessor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var data task.SendEmailCode
	if err := json.Unmarshal(t.Payload(), &data); err != nil {
		return fmt.Errorf("process send email code task json unmarshal failed: %w", err)
	}

	err := p.workers.CodeSender.SendEmailCode(ctx, data.Email, data.Purpose, data.Code, data.IsLink)
	if err != nil {
		return fmt.Errorf("send email code failed: %w", err)
	}

	return nil
}

type sendSMSCodeProcessor struct {
	workers *worker.Workers
}

func NewSendSMSCodeProcessor(workers *worker.Workers) *sendSMSCodeProcessor {
	return &sendSMSCodeProcessor{
		workers: workers,
	}
}

func (p *sendSMSCodeProcessor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var data task.SendSMSCode
	if err := json.Unmarshal(t.Payload(), &data); err != nil {
		return fmt.Errorf("process send sms code task json unmarshal failed: %w", err)
	}

	err := p.workers.CodeSender.SendSMSCode(ctx, data.PhoneNumber, data.Purpose, data.Code)
	if err != nil {
		return fmt.Errorf("send sms code failed: %w", err)
	}

	return nil
}
