package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/maulanarr/duochat-server/internal/auth"
	"github.com/maulanarr/duochat-server/internal/config"
	"github.com/maulanarr/duochat-server/internal/core"
	"github.com/maulanarr/duochat-server/internal/service/chat"
	"github.com/maulanarr/duochat-server/internal/store"
	"github.com/maulanarr/duochat-server/internal/store/sqlite"
)

// testEnv bundles a running server with its backing services.
type testEnv struct {
	ts    *httptest.Server
	store store.Store
	auth  *auth.Service
	chats *chat.Service
}

// newTestEnv builds an in-memory store, services, a running hub and an
// httptest server exposing the full route table.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "test",
		Audience: "test",
		TTL:      24 * time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)
	chatService := chat.New(st)

	hub := core.NewHub(chatService)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	logger := zerolog.Nop()
	cfg := config.Default()
	cfg.UploadDir = t.TempDir()

	server := NewServer(hub, authService, chatService, st, &cfg, &logger)
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, store: st, auth: authService, chats: chatService}
}

// registerUser creates an account and returns its token and user record.
func (env *testEnv) registerUser(t *testing.T, username string) (string, *store.User) {
	t.Helper()

	token, user, err := env.auth.Register(context.Background(), username, username+"@example.com", "password123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return token, user
}

// doJSON issues an authenticated JSON request against the test server.
func (env *testEnv) doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.ts.Config.Handler.ServeHTTP(rec, req)
	return rec
}

// wsURL converts the test server base URL into a WebSocket URL.
func (env *testEnv) wsURL(token string) string {
	url := strings.Replace(env.ts.URL, "http", "ws", 1) + "/ws"
	if token != "" {
		url += "?token=" + token
	}
	return url
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}
