package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dkeye/Babel/internal/adapters/signal"
	"github.com/dkeye/Babel/internal/app"
	"github.com/dkeye/Babel/internal/config"
	"github.com/dkeye/Babel/internal/domain"
	"github.com/dkeye/Babel/internal/summary"
	"github.com/dkeye/Babel/internal/translate"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, apiLimit int) (*gin.Engine, *app.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dict := translate.NewDemoDictionary()
	reg := app.NewRegistry(1000)
	relay := app.NewRelay(reg, dict, dict, summary.Local{}, app.RelayConfig{})
	orch := &app.Orchestrator{Registry: reg, Relay: relay, Policy: app.KickPolicy{}}
	ctl := signal.NewSignalWSController(orch, signal.Options{})
	relay.PublishTo(ctl)

	cfg := &config.Config{Mode: "test", FrontendURL: "http://localhost:3000"}
	cfg.History.APILimit = apiLimit
	return SetupRouter(context.Background(), cfg, orch, ctl), orch
}

func get(t *testing.T, r http.Handler, path string, out any) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w
}

func TestRouter_Health(t *testing.T) {
	req := require.New(t)
	r, orch := newTestRouter(t, 0)
	_, err := orch.Registry.Join("c1", "Ann", "es", nil)
	req.NoError(err)
	_, err = orch.Send(context.Background(), "c1", "hello")
	req.NoError(err)

	var body HealthResponse
	w := get(t, r, "/api/health", &body)

	req.Equal(http.StatusOK, w.Code)
	req.NotEmpty(w.Header().Get(headerRequestID))
	req.Equal(HealthResponse{Status: "OK", ConnectedUsers: 1, TotalMessages: 1}, body)
}

func TestRouter_Messages(t *testing.T) {
	req := require.New(t)
	r, orch := newTestRouter(t, 5)
	_, _ = orch.Registry.Join("c1", "Ann", "en", nil)
	for i := range 8 {
		_, err := orch.Send(context.Background(), "c1", fmt.Sprintf("m%d", i))
		req.NoError(err)
	}

	var msgs []domain.Message
	get(t, r, "/api/messages", &msgs)
	req.Len(msgs, 5)
	req.Equal("m3", msgs[0].OriginalText)
	req.Equal("m7", msgs[4].OriginalText)

	get(t, r, "/api/messages?limit=2", &msgs)
	req.Len(msgs, 2)
	req.Equal("m6", msgs[0].OriginalText)

	get(t, r, "/api/messages?limit=500", &msgs)
	req.Len(msgs, 5)

	req.Equal(http.StatusBadRequest, get(t, r, "/api/messages?limit=abc", nil).Code)
	req.Equal(http.StatusBadRequest, get(t, r, "/api/messages?limit=-1", nil).Code)
}

func TestRouter_MessagesEmptyIsArray(t *testing.T) {
	r, _ := newTestRouter(t, 0)
	w := get(t, r, "/api/messages", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, "[]", w.Body.String())
}

func TestRouter_Users(t *testing.T) {
	req := require.New(t)
	r, orch := newTestRouter(t, 0)
	_, _ = orch.Registry.Join("c1", "Ann", "en", nil)
	_, _ = orch.Registry.Join("c2", "Bea", "xx", nil)

	var users []domain.Connection
	get(t, r, "/api/users", &users)

	req.Len(users, 2)
	req.Equal("Ann", users[0].Username)
	req.Equal(domain.English, users[1].Language)
}

func TestRouter_CORS(t *testing.T) {
	r, _ := newTestRouter(t, 0)
	w := httptest.NewRecorder()
	rq := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rq.Header.Set("Origin", "http://localhost:3000")
	r.ServeHTTP(w, rq)

	require.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
