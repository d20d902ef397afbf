package discord

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"system_rent_tracker/internal/domain/notify"
)

func sampleMessage() notify.Message {
	return notify.Message{
		Kind:    notify.KindAdvance,
		Title:   "Rent Due Soon: Jita-4-4",
		Body:    "Rent for Jita-4-4 (June 2024): 500 mil ISK, due 2024-07-01 (in 3 days).",
		Mention: "@farm-l",
		Fields: []notify.Field{
			{Name: "System", Value: "Jita-4-4", Inline: true},
			{Name: "Amount Due", Value: "500 mil ISK", Inline: true},
		},
	}
}

func TestDeliverPostsEmbed(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, "{base_url}", 5*time.Second)
	err := n.Deliver(context.Background(), notify.Target{}, sampleMessage())
	require.NoError(t, err)

	assert.Equal(t, "@farm-l", got.Content)
	require.Len(t, got.Embeds, 1)
	assert.Equal(t, "Rent Due Soon: Jita-4-4", got.Embeds[0].Title)
	assert.Equal(t, colorAdvance, got.Embeds[0].Color)
	require.Len(t, got.Embeds[0].Fields, 2)
	assert.Equal(t, "System", got.Embeds[0].Fields[0].Name)
}

func TestDeliverNon204IsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "invalid webhook"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, "{base_url}", 5*time.Second)
	err := n.Deliver(context.Background(), notify.Target{}, sampleMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestDeliverUnreachableWebhook(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // deliberately unreachable

	n := NewWebhookNotifier(server.URL, "{base_url}", time.Second)
	err := n.Deliver(context.Background(), notify.Target{}, sampleMessage())
	assert.Error(t, err)
}

func TestWebhookURLChannelRouting(t *testing.T) {
	n := NewWebhookNotifier("https://discord.test/hook", "{base_url}?thread_name={channel}", time.Second)
	assert.Equal(t, "https://discord.test/hook?thread_name=farm-l", n.webhookURL("farm-l"))
	assert.Equal(t, "https://discord.test/hook", n.webhookURL(""), "no channel falls back to the base webhook")
}

func TestColorBySeverity(t *testing.T) {
	assert.Equal(t, colorAdvance, colorFor(notify.KindAdvance))
	assert.Equal(t, colorDue, colorFor(notify.KindDue))
	assert.Equal(t, colorOverdue, colorFor(notify.KindOverdue))
	assert.Equal(t, "MEDIUM", severityFor(notify.KindAdvance))
	assert.Equal(t, "HIGH", severityFor(notify.KindOverdue))
}
