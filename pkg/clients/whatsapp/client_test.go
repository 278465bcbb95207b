package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/partstock/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *APIClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(config.WhatsAppConfig{
		AccessToken:   "secret",
		PhoneNumberID: "1055",
		BaseURL:       server.URL + "/",
		APIVersion:    "v20.0",
	})
}

func TestSendTextMessage(t *testing.T) {
	var body map[string]any
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v20.0/1055/messages", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.1"}]}`))
	})

	resp, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "+63 917-123 4567", Body: "Low stock"})
	require.NoError(t, err)
	assert.Equal(t, "wamid.1", resp.MessageID())

	assert.Equal(t, "whatsapp", body["messaging_product"])
	assert.Equal(t, "639171234567", body["to"])
	assert.Equal(t, "text", body["type"])
	assert.Equal(t, map[string]any{"body": "Low stock", "preview_url": false}, body["text"])
}

func TestSendTextMessageAPIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid parameter","type":"OAuthException","code":100,"fbtrace_id":"Ax1"}}`))
	})

	_, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "639171234567", Body: "hi"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, 100, apiErr.Code)
	assert.Equal(t, "Invalid parameter", apiErr.Message)
	assert.Equal(t, "Ax1", apiErr.FBTraceID)
}

func TestSendTextMessageRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"try later","code":2}}`))
			return
		}
		_, _ = w.Write([]byte(`{"messages":[{"id":"wamid.2"}]}`))
	})

	resp, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "639171234567", Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "wamid.2", resp.MessageID())
	assert.Equal(t, int32(2), calls.Load())
}

func TestSendTextMessageRejectsEmptyRecipient(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := client.SendTextMessage(context.Background(), SendTextMessageRequest{To: "n/a", Body: "hi"})
	assert.ErrorIs(t, err, ErrInvalidRecipient)
}

func TestNormalizeRecipient(t *testing.T) {
	assert.Equal(t, "224622350064", NormalizeRecipient("+224 622-35-00-64"))
	assert.Equal(t, "", NormalizeRecipient(""))
	assert.Equal(t, "", (*SendTextMessageResponse)(nil).MessageID())
}
