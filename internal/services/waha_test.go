package services

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeChatID(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "local number",
			input:    "0241234567",
			expected: "233241234567@c.us",
		},
		{
			name:     "number with country code",
			input:    "233241234567",
			expected: "233241234567@c.us",
		},
		{
			name:     "e164 number",
			input:    "+233241234567",
			expected: "233241234567@c.us",
		},
		{
			name:     "group id",
			input:    "120363407813232111@g.us",
			expected: "120363407813232111@g.us",
		},
		{
			name:     "local number with suffix",
			input:    "0241234567@c.us",
			expected: "233241234567@c.us",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeChatID(tt.input))
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	assert.Equal(t, "+233241234567", NormalizePhone("024 123 4567"))
	assert.Equal(t, "+233241234567", NormalizePhone("233241234567"))
	assert.Equal(t, "+14155550100", NormalizePhone("+14155550100"))
}

func TestWahaSendMessageSequence(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	require.NoError(t, NewWahaService(srv.URL, "secret").SendMessage("0241234567", "hello"))
	assert.Equal(t, []string{"/api/sendSeen", "/api/startTyping", "/api/stopTyping", "/api/sendText"}, paths)
}
