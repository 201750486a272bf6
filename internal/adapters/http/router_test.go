package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Relay/internal/adapters/rtc"
	"github.com/dkeye/Relay/internal/adapters/signal"
	"github.com/dkeye/Relay/internal/app"
	"github.com/dkeye/Relay/internal/app/orch"
	"github.com/dkeye/Relay/internal/config"
	"github.com/dkeye/Relay/internal/domain"
	"github.com/dkeye/Relay/internal/identity"
	"github.com/dkeye/Relay/internal/ratelimit"
	"github.com/dkeye/Relay/internal/store"
)

type testEnv struct {
	srv      *httptest.Server
	store    *store.Store
	orch     *orch.Orchestrator
	verifier *identity.JWTVerifier
}

func setupEnv(t *testing.T, requireSignalAuth bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s, err := store.Open(store.Config{Driver: store.DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, s.Migrate())

	verifier, err := identity.NewJWTVerifier(identity.Config{Secret: "test-secret", Issuer: "relay-test"})
	require.NoError(t, err)

	o := orch.New(s, nil, app.SimplePolicy{})
	ws := signal.NewSignalWSController(o, verifier, ratelimit.Unlimited{}, signal.Options{
		PingPeriod:  time.Minute,
		SendBuffer:  64,
		HistorySize: 10,
		RequireAuth: requireSignalAuth,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cfg := &config.Config{Mode: "test", Secret: "cookie-secret"}
	r := SetupRouter(ctx, cfg, Deps{
		Orch:     o,
		Users:    s,
		Identity: verifier,
		Signal:   ws,
		Limiter:  ratelimit.Unlimited{},
		WebRTC:   rtc.DefaultWebRTCConfig(),
	})
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		cancel()
		srv.Close()
		_ = s.Close()
	})
	return &testEnv{srv: srv, store: s, orch: o, verifier: verifier}
}

func (e *testEnv) token(t *testing.T, uid domain.UserID) string {
	t.Helper()
	tok, err := e.verifier.Issue(uid, "", time.Minute)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) user(t *testing.T, name string) domain.UserID {
	t.Helper()
	u, err := domain.NewUser(name)
	require.NoError(t, err)
	require.NoError(t, e.store.CreateUser(context.Background(), u))
	return u.ID
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rdr)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func TestHealthz(t *testing.T) {
	e := setupEnv(t, false)
	code, body := e.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestAuth(t *testing.T) {
	e := setupEnv(t, false)

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{name: "no credential", token: "", want: http.StatusUnauthorized},
		{name: "garbage", token: "nope", want: http.StatusUnauthorized},
		{name: "valid", token: e.token(t, 1), want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _ := e.do(t, http.MethodGet, "/api/cars", tt.token, nil)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestICEServers(t *testing.T) {
	e := setupEnv(t, false)
	code, body := e.do(t, http.MethodGet, "/api/ice-servers", "", nil)
	require.Equal(t, http.StatusOK, code)
	servers := body["iceServers"].([]any)
	require.Len(t, servers, 1)
	assert.Equal(t, []any{"stun:stun.l.google.com:19302"}, servers[0].(map[string]any)["urls"])
}

func TestUsers(t *testing.T) {
	e := setupEnv(t, false)
	tok := e.token(t, 1)

	code, body := e.do(t, http.MethodPost, "/api/users", tok, map[string]any{"username": "alice"})
	require.Equal(t, http.StatusCreated, code)
	id := body["id"]

	code, _ = e.do(t, http.MethodPost, "/api/users", tok, map[string]any{"username": "alice"})
	assert.Equal(t, http.StatusConflict, code)

	code, _ = e.do(t, http.MethodPost, "/api/users", tok, map[string]any{"username": ""})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = e.do(t, http.MethodGet, "/api/users/1", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, id, body["id"])

	code, _ = e.do(t, http.MethodGet, "/api/users/99", tok, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSeatsFlow(t *testing.T) {
	e := setupEnv(t, false)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	ta, tb := e.token(t, alice), e.token(t, bob)

	code, car := e.do(t, http.MethodPost, "/api/cars", ta, map[string]any{"name": "car-1"})
	require.Equal(t, http.StatusCreated, code)
	carID := int(car["id"].(float64))

	seatsPath := "/api/cars/" + itoa(carID) + "/seats"
	code, seat := e.do(t, http.MethodPost, seatsPath, ta, map[string]any{"number": 3})
	require.Equal(t, http.StatusCreated, code)
	seatID := itoa(int(seat["id"].(float64)))

	code, _ = e.do(t, http.MethodPost, seatsPath, ta, map[string]any{"number": 3})
	assert.Equal(t, http.StatusConflict, code, "duplicate seat number")

	code, _ = e.do(t, http.MethodPost, "/api/cars/999/seats", ta, map[string]any{"number": 1})
	assert.Equal(t, http.StatusNotFound, code)

	code, got := e.do(t, http.MethodPost, "/api/seats/"+seatID+"/claim", ta, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, got["occupied"])

	code, _ = e.do(t, http.MethodPost, "/api/seats/"+seatID+"/claim", tb, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, got = e.do(t, http.MethodPost, "/api/seats/"+seatID+"/release", ta, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, got["occupied"])

	code, _ = e.do(t, http.MethodPost, "/api/seats/"+seatID+"/claim", tb, nil)
	assert.Equal(t, http.StatusOK, code)

	code, list := e.do(t, http.MethodGet, seatsPath, ta, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, list["seats"], 1)

	code, _ = e.do(t, http.MethodPost, "/api/seats/abc/claim", ta, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestCallsFlow(t *testing.T) {
	e := setupEnv(t, false)
	alice, bob := e.user(t, "alice"), e.user(t, "bob")
	ta := e.token(t, alice)

	code, call := e.do(t, http.MethodPost, "/api/calls", ta, map[string]any{"receiverId": bob})
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "pending", call["status"])
	path := "/api/calls/" + itoa(int(call["id"].(float64)))

	code, _ = e.do(t, http.MethodPost, "/api/calls", ta, map[string]any{"receiverId": alice})
	assert.Equal(t, http.StatusBadRequest, code, "self call")

	code, got := e.do(t, http.MethodPatch, path, ta, map[string]any{"status": "active"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "active", got["status"])
	assert.Nil(t, got["endedAt"])

	code, got = e.do(t, http.MethodPatch, path, ta, map[string]any{"status": "ended"})
	require.Equal(t, http.StatusOK, code)
	endedAt := got["endedAt"]
	assert.NotNil(t, endedAt)

	code, got = e.do(t, http.MethodPatch, path, ta, map[string]any{"status": "active"})
	require.Equal(t, http.StatusOK, code, "illegal transition is a no-op")
	assert.Equal(t, "ended", got["status"])
	assert.True(t, parseTime(t, endedAt).Equal(parseTime(t, got["endedAt"])))

	code, _ = e.do(t, http.MethodPatch, path, ta, map[string]any{"status": "ringing"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = e.do(t, http.MethodGet, "/api/calls/999", ta, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, list := e.do(t, http.MethodGet, "/api/calls", e.token(t, bob), nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, list["calls"], 1)
}

func TestSessionCookie(t *testing.T) {
	e := setupEnv(t, false)
	alice := e.user(t, "alice")

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := &http.Client{Jar: jar}

	req, _ := http.NewRequest(http.MethodPost, e.srv.URL+"/api/session", nil)
	req.Header.Set("Authorization", "Bearer "+e.token(t, alice))
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = client.Get(e.srv.URL + "/api/messages")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "cookie alone authenticates")

	req, _ = http.NewRequest(http.MethodDelete, e.srv.URL+"/api/session", nil)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = client.Get(e.srv.URL + "/api/messages")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func itoa(n int) string { return strconv.Itoa(n) }

func parseTime(t *testing.T, v any) time.Time {
	t.Helper()
	s, ok := v.(string)
	require.True(t, ok, "want timestamp, got %v", v)
	ts, err := time.Parse(time.RFC3339Nano, s)
	require.NoError(t, err)
	return ts
}
