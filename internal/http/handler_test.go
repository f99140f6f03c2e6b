package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dam/internal/engine"
	damhttp "dam/internal/http"
	"dam/internal/service"
)

const testTimeout = 15000 // fiber app.Test timeout, milliseconds

func newTestApp(t *testing.T) (*fiber.App, *service.Service) {
	t.Helper()
	svc := service.New(nil, engine.Config{}, zerolog.Nop())
	t.Cleanup(svc.Close)
	app := damhttp.NewFiberApp(svc, nil, "", true)
	return app, svc
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*stdhttp.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, testTimeout)
	require.NoError(t, err)

	var parsed map[string]any
	dec := json.NewDecoder(resp.Body)
	_ = dec.Decode(&parsed) // empty bodies are fine
	resp.Body.Close()
	return resp, parsed
}

func createSession(t *testing.T, app *fiber.App) string {
	t.Helper()
	resp, body := doJSON(t, app, "POST", "/api/v1/sessions", nil)
	require.Equal(t, stdhttp.StatusCreated, resp.StatusCode)
	id, ok := body["sessionId"].(string)
	require.True(t, ok, "body: %v", body)
	return id
}

func TestHealth(t *testing.T) {
	app, _ := newTestApp(t)
	resp, body := doJSON(t, app, "GET", "/health", nil)
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "disabled", body["storage"])
}

func TestSessionLifecycleOverHTTP(t *testing.T) {
	app, svc := newTestApp(t)

	id := createSession(t, app)
	assert.Equal(t, 1, svc.SessionCount())

	resp, body := doJSON(t, app, "GET", "/api/v1/sessions/"+id, nil)
	assert.Equal(t, stdhttp.StatusOK, resp.StatusCode)
	assert.Equal(t, id, body["sessionId"])
	assert.Equal(t, "ready", body["status"])

	resp, _ = doJSON(t, app, "DELETE", "/api/v1/sessions/"+id, nil)
	assert.Equal(t, stdhttp.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, svc.SessionCount())
}

func TestCommandAndPoll(t *testing.T) {
	app, _ := newTestApp(t)
	id := createSession(t, app)

	resp, _ := doJSON(t, app, "POST", "/api/v1/sessions/"+id+"/commands",
		damhttp.CommandRequest{Command: "ping"})
	assert.Equal(t, stdhttp.StatusAccepted, resp.StatusCode)

	deadline := time.Now().Add(10 * time.Second)
	for {
		require.True(t, time.Now().Before(deadline), "no pong arrived")
		_, body := doJSON(t, app, "GET", "/api/v1/sessions/"+id+"/messages?after=0", nil)
		found := false
		if msgs, ok := body["messages"].([]any); ok {
			for _, raw := range msgs {
				if m, ok := raw.(map[string]any); ok && m["line"] == "pong" {
					found = true
				}
			}
		}
		if found {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestSendCommandValidation(t *testing.T) {
	app, _ := newTestApp(t)
	id := createSession(t, app)

	resp, body := doJSON(t, app, "POST", "/api/v1/sessions/"+id+"/commands",
		map[string]any{"command": ""})
	assert.Equal(t, stdhttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, damhttp.ErrInvalidRequest, body["code"])

	resp, body = doJSON(t, app, "POST", "/api/v1/sessions/"+id+"/commands",
		map[string]any{"command": strings.Repeat("x", 5000)})
	assert.Equal(t, stdhttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, damhttp.ErrInvalidRequest, body["code"])
}

func TestUnknownSessionRoutes(t *testing.T) {
	app, _ := newTestApp(t)

	missing := "123e4567-e89b-12d3-a456-426614174000"
	for _, tc := range []struct{ method, path string }{
		{"GET", "/api/v1/sessions/" + missing},
		{"POST", "/api/v1/sessions/" + missing + "/commands"},
		{"GET", "/api/v1/sessions/" + missing + "/messages"},
		{"DELETE", "/api/v1/sessions/" + missing},
	} {
		var payload any
		if tc.method == "POST" {
			payload = damhttp.CommandRequest{Command: "ping"}
		}
		resp, body := doJSON(t, app, tc.method, tc.path, payload)
		assert.Equal(t, stdhttp.StatusNotFound, resp.StatusCode, "%s %s", tc.method, tc.path)
		assert.Equal(t, damhttp.ErrSessionNotFound, body["code"])
	}

	resp, body := doJSON(t, app, "GET", "/api/v1/sessions/not-a-uuid", nil)
	assert.Equal(t, stdhttp.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, damhttp.ErrInvalidRequest, body["code"])
}

func TestGamesWithoutStorage(t *testing.T) {
	app, _ := newTestApp(t)
	resp, body := doJSON(t, app, "GET", "/api/v1/games", nil)
	assert.Equal(t, stdhttp.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, damhttp.ErrEngineUnavailable, body["code"])
}

func TestTokenRequired(t *testing.T) {
	app := fiber.New()
	app.Use(damhttp.TokenRequired("$2a$10$invalidhashinvalidhashinvalidhashinvalidhashinvalid"))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	req := httptest.NewRequest("GET", "/", nil)
	resp, err := app.Test(req, testTimeout)
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", "wrong-token"))
	resp, err = app.Test(req, testTimeout)
	require.NoError(t, err)
	assert.Equal(t, stdhttp.StatusUnauthorized, resp.StatusCode)
}
