package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smokeConversationID = "7b0e3c8e-3d0a-4a43-9f6e-0c1f0a7d9a11"

func newFakeAPI(t *testing.T, sendStatus int) (*httptest.Server, *[]string) {
	t.Helper()
	var calls []string

	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, body any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer dev-token" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "health")
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "root")
		writeJSON(w, http.StatusOK, map[string]string{"version": "0.1.0"})
	})
	mux.HandleFunc("POST /api/v1/conversations", authed(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "create")
		writeJSON(w, http.StatusCreated, map[string]string{"id": smokeConversationID, "title": "Smoke test conversation"})
	}))
	mux.HandleFunc("GET /api/v1/conversations", authed(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "list")
		writeJSON(w, http.StatusOK, []map[string]string{{"id": smokeConversationID}})
	}))
	mux.HandleFunc("POST /api/v1/conversations/{id}/messages", authed(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "send")
		assert.Equal(t, smokeConversationID, r.PathValue("id"))
		writeJSON(w, sendStatus, map[string]string{"id": "m2", "role": "assistant", "content": "Sure!"})
	}))
	mux.HandleFunc("GET /api/v1/conversations/{id}/messages", authed(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "messages")
		writeJSON(w, http.StatusOK, []map[string]string{
			{"id": "m1", "role": "user", "content": "Hello"},
			{"id": "m2", "role": "assistant", "content": "Sure!"},
		})
	}))

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &calls
}

func runSmokeAgainst(t *testing.T, baseURL, token string) error {
	t.Helper()
	smokeBaseURL = baseURL
	smokeToken = token
	t.Cleanup(func() {
		smokeBaseURL = ""
		smokeToken = ""
	})
	smokeCmd.SetContext(context.Background())
	return runSmoke(smokeCmd, nil)
}

func TestSmoke_RunsEveryStep(t *testing.T) {
	server, calls := newFakeAPI(t, http.StatusCreated)

	require.NoError(t, runSmokeAgainst(t, server.URL, "dev-token"))
	assert.Equal(t, []string{"health", "root", "create", "list", "send", "messages"}, *calls)
}

func TestSmoke_StopsOnUnexpectedStatus(t *testing.T) {
	server, calls := newFakeAPI(t, http.StatusBadGateway)

	err := runSmokeAgainst(t, server.URL, "dev-token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send message failed")
	assert.Equal(t, []string{"health", "root", "create", "list", "send"}, *calls)
}

func TestSmoke_RequiresToken(t *testing.T) {
	err := runSmokeAgainst(t, "http://127.0.0.1:0", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--token")
}
