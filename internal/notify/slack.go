package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var errSlackDisabled = errors.New("slack disabled")

// Slack posts alerts to an incoming webhook.
type Slack struct {
	Webhook string
	Client  *http.Client
}

// NewSlack returns nil when webhook is empty.
func NewSlack(webhook string) *Slack {
	if webhook == "" {
		return nil
	}
	return &Slack{
		Webhook: webhook,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type slackPayload struct {
	Text string `json:"text"`
}

func (s *Slack) Notify(ctx context.Context, a Alert) error {
	if s == nil || s.Webhook == "" {
		return errSlackDisabled
	}
	body, err := json.Marshal(slackPayload{Text: "*" + a.Title() + "*\n```" + a.Text() + "```"})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Webhook, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("slack webhook: %s", resp.Status)
	}
	return nil
}
