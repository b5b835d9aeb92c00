package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"asser-platform/internal/config"
)

func TestNewFallsBackToLog(t *testing.T) {
	n, err := New(config.TelegramConfig{})
	require.NoError(t, err)
	assert.IsType(t, LogNotifier{}, n)
	assert.NoError(t, n.NotifyAdmins(context.Background(), "hello"))

	n, err = New(config.TelegramConfig{Token: "123:abc"})
	require.NoError(t, err)
	assert.IsType(t, LogNotifier{}, n, "no admin chats configured")
}

func TestTelegramNotifierSendsToEveryChat(t *testing.T) {
	var (
		mu    sync.Mutex
		chats []string
		texts []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/sendMessage"), r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		mu.Lock()
		chats = append(chats, body["chat_id"].(string))
		texts = append(texts, body["text"].(string))
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":1,"type":"private"},"text":"ok"}}`))
	}))
	defer srv.Close()

	n, err := NewTelegramNotifier(tele.Settings{Token: "123:abc", URL: srv.URL}, []int64{100, 200})
	require.NoError(t, err)

	require.NoError(t, n.NotifyAdmins(context.Background(), "New deposit request #7"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"100", "200"}, chats)
	assert.Equal(t, []string{"New deposit request #7", "New deposit request #7"}, texts)
}

func TestTelegramNotifierReportsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	n, err := NewTelegramNotifier(tele.Settings{Token: "123:abc", URL: srv.URL}, []int64{1})
	require.NoError(t, err)

	assert.Error(t, n.NotifyAdmins(context.Background(), "hi"))
}
