package notifications

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendAlertPostsToChat(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("test-token", "42")
	notifier.baseURL = srv.URL

	require.NoError(t, notifier.SendAlert("success", "BUY BTCUSDT 0.5 @ ~$60000"))
	assert.Equal(t, "42", got["chat_id"])
	assert.Contains(t, got["text"], "✅")
	assert.Contains(t, got["text"], "BUY BTCUSDT 0.5")
}

func TestSendAlertSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	notifier := NewTelegramNotifier("bad-token", "42")
	notifier.baseURL = srv.URL

	err := notifier.SendAlert("info", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}

func TestLevelEmoji(t *testing.T) {
	assert.Equal(t, "✅", levelEmoji("success"))
	assert.Equal(t, "⚠️", levelEmoji("warning"))
	assert.Equal(t, "🚨", levelEmoji("error"))
	assert.Equal(t, "ℹ️", levelEmoji("info"))
	assert.Equal(t, "ℹ️", levelEmoji(""))
}
