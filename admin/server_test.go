package admin

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"showbot/auth"
	"showbot/runtime"
)

func newTestServer(t *testing.T, shutdown func()) *Server {
	t.Helper()
	hash, err := auth.HashPassword("correct horse")
	require.NoError(t, err)

	session := runtime.NewSession(runtime.Options{
		Username:    "showbot",
		MainRoom:    "lobby",
		UnitTesting: true,
	}, slog.Default())

	return NewServer(session, Options{
		Username:     "admin",
		PasswordHash: hash,
		Issuer:       auth.NewTokenIssuer("test-secret", time.Hour),
		Shutdown:     shutdown,
	}, slog.Default())
}

func postJSON(t *testing.T, srv *Server, path, token string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.app.Test(req)
	require.NoError(t, err)
	return resp
}

func obtainToken(t *testing.T, srv *Server) string {
	t.Helper()
	resp := postJSON(t, srv, "/login", "", loginRequest{Username: "admin", Password: "correct horse"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body tokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

func Test_Login_WrongPassword(t *testing.T) {
	srv := newTestServer(t, nil)
	resp := postJSON(t, srv, "/login", "", loginRequest{Username: "admin", Password: "nope"})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func Test_Status_RequiresToken(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t, nil)

	r := httptest.NewRequest(http.MethodGet, "/status", nil)
	resp, err := srv.app.Test(r)
	req.NoError(err)
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func Test_Status_ReportsRooms(t *testing.T) {
	req := require.New(t)
	srv := newTestServer(t, nil)
	room := srv.session.Registry().Room("lobby")
	room.SetTitle("Lobby")
	room.AddUser("Alice", "+")

	token := obtainToken(t, srv)
	r := httptest.NewRequest(http.MethodGet, "/status", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	resp, err := srv.app.Test(r)
	req.NoError(err)
	req.Equal(http.StatusOK, resp.StatusCode)

	var body statusResponse
	req.NoError(json.NewDecoder(resp.Body).Decode(&body))
	req.False(body.Connected)
	req.Len(body.Rooms, 1)
	req.Equal("lobby", body.Rooms[0].ID)
	req.Equal(1, body.Rooms[0].Users)
}

func Test_Shutdown_CancelsRootContext(t *testing.T) {
	req := require.New(t)
	var cancelled bool
	srv := newTestServer(t, func() { cancelled = true })

	token := obtainToken(t, srv)
	resp := postJSON(t, srv, "/shutdown", token, struct{}{})
	req.Equal(http.StatusOK, resp.StatusCode)
	req.True(cancelled)
}

func Test_Shutdown_RejectsForgedToken(t *testing.T) {
	req := require.New(t)
	var cancelled bool
	srv := newTestServer(t, func() { cancelled = true })

	forged, err := auth.NewTokenIssuer("other-secret", time.Hour).Generate("admin")
	req.NoError(err)
	resp := postJSON(t, srv, "/shutdown", forged, struct{}{})
	req.Equal(http.StatusUnauthorized, resp.StatusCode)
	req.False(cancelled)
}
