package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mcastellanos/procadena/internal/config"
)

// Sender delivers WhatsApp messages through the provider's HTTP API.
type Sender struct {
	client *resty.Client
	phone  string
}

type sendRequest struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textPayload `json:"text"`
}

type textPayload struct {
	Body string `json:"body"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func NewSender(cfg config.WhatsAppConfig) *Sender {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.Token).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &Sender{
		client: client,
		phone:  cfg.PhoneNumber,
	}
}

// Send delivers one text message and returns the provider message ID
// plus the raw response body for the delivery audit.
func (s *Sender) Send(ctx context.Context, to, body string) (string, string, error) {
	req := sendRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             textPayload{Body: body},
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		Post(fmt.Sprintf("/%s/messages", s.phone))
	if err != nil {
		return "", "", fmt.Errorf("failed to send whatsapp message: %w", err)
	}
	if resp.IsError() {
		return "", string(resp.Body()), fmt.Errorf("whatsapp api returned status %d", resp.StatusCode())
	}

	var parsed sendResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", string(resp.Body()), fmt.Errorf("failed to decode whatsapp response: %w", err)
	}

	externalID := ""
	if len(parsed.Messages) > 0 {
		externalID = parsed.Messages[0].ID
	}
	return externalID, string(resp.Body()), nil
}
