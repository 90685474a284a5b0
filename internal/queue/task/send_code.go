package task

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	SendEmailCodeTaskName  = "sendEmailCodeTask"
	SendEmailCodeQueueName = "emailDeliveryQueue"

	SendSMSCodeTaskName  = "sendSMSCodeTask"
	SendSMSCodeQueueName = "smsDeliveryQueue"
)

type SendEmailCode struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	Code    string `json:"code"`
	IsLink  bool   `json:"is_link"`
}

type SendSMSCode struct {
	PhoneNumber string `json:"phone_number"`
	Purpose     string `json:"purpose"`
	Code        string `json:"code"`
}

func NewSendEmailCodeTask(email string, purpose string, code string, isLink bool) (*asynq.Task, error) {
	data := SendEmailCode{
		Email:   email,
		Purpose: purpose,
		Code:    code,
		IsLink:  isLink,
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("json data marshal failed: %w", err)
	}

	return asynq.NewTask(
		SendEmailCodeTaskName,
		payload,
		asynq.MaxRetry(5),
		asynq.Queue(SendEmailCodeQueueName),
	), nil
}

func NewSendSMSCodeTask(phoneNumber string, purpose string, code string) (*asynq.Task, error) {
	data := SendSMSCode{
		PhoneNumber: phoneNumber,
		Purpose:     purpose,
		Code:        code,
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("json data marshal failed: %w", err)
	}

	return asynq.NewTask(
		SendSMSCodeTaskName,
		payload,
		asynq.MaxRetry(5),
		asynq.Queue(SendSMSCodeQueueName),
	), nil
}
