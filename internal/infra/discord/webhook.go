package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"system_rent_tracker/internal/domain/notify"
)

// Embed colors per reminder kind.
const (
	colorAdvance = 0xF39C12 // orange
	colorDue     = 0xE74C3C // red
	colorOverdue = 0xE74C3C // red
)

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       int          `json:"color"`
	Timestamp   string       `json:"timestamp"`
	Fields      []embedField `json:"fields,omitempty"`
	Footer      *embedFooter `json:"footer,omitempty"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type webhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []embed `json:"embeds"`
}

// WebhookNotifier delivers rendered reminders to a Discord webhook as
// severity-colored embeds. Discord answers 204 on success.
type WebhookNotifier struct {
	baseURL string
	// urlTemplate supports per-channel webhook routing with {base_url} and
	// {channel} placeholders; the default "{base_url}" sends everything to
	// one webhook.
	urlTemplate string
	client      *http.Client
}

func NewWebhookNotifier(baseURL, urlTemplate string, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{
		baseURL:     baseURL,
		urlTemplate: urlTemplate,
		client:      &http.Client{Timeout: timeout},
	}
}

func (n *WebhookNotifier) Deliver(ctx context.Context, target notify.Target, msg notify.Message) error {
	fields := make([]embedField, 0, len(msg.Fields))
	for _, f := range msg.Fields {
		fields = append(fields, embedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}

	payload := webhookPayload{
		Content: msg.Mention,
		Embeds: []embed{{
			Title:       msg.Title,
			Description: msg.Body,
			Color:       colorFor(msg.Kind),
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
			Fields:      fields,
			Footer:      &embedFooter{Text: "Priority: " + severityFor(msg.Kind) + " | Rent Tracker"},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL(target.Channel), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting to Discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("Discord webhook returned status %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}

func (n *WebhookNotifier) webhookURL(channel string) string {
	if channel == "" {
		return n.baseURL
	}
	url := strings.ReplaceAll(n.urlTemplate, "{base_url}", n.baseURL)
	return strings.ReplaceAll(url, "{channel}", channel)
}

func colorFor(kind notify.Kind) int {
	switch kind {
	case notify.KindAdvance:
		return colorAdvance
	case notify.KindDue:
		return colorDue
	default:
		return colorOverdue
	}
}

func severityFor(kind notify.Kind) string {
	if kind == notify.KindAdvance {
		return "MEDIUM"
	}
	return "HIGH"
}
