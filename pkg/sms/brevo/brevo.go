package brevo

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

const apiURL = "https://api.brevo.com/v3/transactionalSMS/sms"

type Sender struct {
	apiKey string
	sender string
	client *http.Client
}

func NewBrevoSender(apiKey string, sender string) (*Sender, error) {
	if apiKey == "" {
		return nil, errors.New("empty brevo api key")
	}

	return &Sender{
		apiKey: apiKey,
		sender: sender,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

func (s *Sender) Name() string {
	return "brevo"
}

type sendRequest struct {
	Sender    string `json:"sender"`
	Recipient string `json:"recipient"`
	Content   string `json:"content"`
	Type      string `json:"type"`
}

func (s *Sender) Send(ctx context.Context, to string, text string) error {
	payload, err := json.Marshal(sendRequest{
		Sender:    s.sender,
		Recipient: to,
		Content:   text,
		Type:      "transactional",
	})
	if err != nil {
		return errors.Wrap(err, "marshal brevo payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build brevo request")
	}
	req.Header.Set("api-key", s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "brevo request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("brevo responded with status %d", resp.StatusCode)
	}

	return nil
}
