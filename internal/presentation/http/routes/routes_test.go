package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/AtRiskMedia/spotlight-go/internal/application/container"
	"github.com/AtRiskMedia/spotlight-go/internal/application/services"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/spotlight-go/internal/presentation/http/middleware"
	"github.com/AtRiskMedia/spotlight-go/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSysopToken = "sysop-secret"

func newTestContainer(t *testing.T) *container.Container {
	t.Helper()
	logger := logging.NewDiscardLogger()
	tracker := performance.NewTracker(nil)
	tokens, err := security.NewTokenIssuer("test-secret", time.Hour)
	require.NoError(t, err)

	store := stores.NewEditorSessionStore(4, logger)
	broadcaster := messaging.NewSceneBroadcaster(8, logger)
	editor := services.NewEditorService(store, tokens, broadcaster, logger, tracker, 6)
	sysop := services.NewSysOpService(editor, broadcaster, logger, tracker, 4)

	logs := logging.NewLogBroadcaster()
	go logs.Run()
	t.Cleanup(logs.Shutdown)

	return &container.Container{
		EditorService: editor,
		CodeService:   services.NewCodeService(logger, tracker),
		RenderService: services.NewRenderService(editor, media.NewPreviewRenderer(256, 80), logger, tracker),
		SysOpService:  sysop,

		SessionStore:     store,
		Broadcaster:      broadcaster,
		SysOpBroadcaster: messaging.NewSysOpBroadcaster(func() any { return sysop.Stats() }, time.Second, logger),
		Tokens:           tokens,
		LogBroadcaster:   logs,
		Logger:           logger,
		PerfTracker:      tracker,
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	prevToken, prevOrigins := config.SysopToken, config.CORSOrigins
	config.SysopToken = testSysopToken
	config.CORSOrigins = nil
	t.Cleanup(func() {
		config.SysopToken, config.CORSOrigins = prevToken, prevOrigins
	})

	return SetupRoutes(newTestContainer(t))
}

type createdSession struct {
	SessionID string `json:"sessionId"`
	Token     string `json:"token"`
	Version   uint64 `json:"version"`
	Scene     struct {
		Spotlights []json.RawMessage `json:"spotlights"`
	} `json:"scene"`
}

type mutation struct {
	Changed bool   `json:"changed"`
	Version uint64 `json:"version"`
	Scene   struct {
		Spotlights []struct {
			ID int     `json:"id"`
			X  float64 `json:"x"`
		} `json:"spotlights"`
		BlendMode string `json:"blendMode"`
	} `json:"scene"`
	Projection struct {
		BlendMode  string `json:"blendMode"`
		Background struct {
			Type string `json:"type"`
		} `json:"background"`
	} `json:"projection"`
}

func do(r http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(middleware.SessionTokenHeader, token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, r http.Handler) createdSession {
	t.Helper()
	w := do(r, http.MethodPost, "/api/v1/sessions", "", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created createdSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.Token)
	return created
}

func decodeMutation(t *testing.T, w *httptest.ResponseRecorder) mutation {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var m mutation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func TestHealth(t *testing.T) {
	r := newTestRouter(t)
	w := do(r, http.MethodGet, "/api/v1/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestCreateSession(t *testing.T) {
	r := newTestRouter(t)
	created := createSession(t, r)
	assert.Len(t, created.Scene.Spotlights, 2)
	assert.Equal(t, uint64(0), created.Version)

	w := do(r, http.MethodGet, "/api/v1/sessions/"+created.SessionID, created.Token, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateSessionRejectsMalformedScene(t *testing.T) {
	r := newTestRouter(t)
	w := do(r, http.MethodPost, "/api/v1/sessions", "", `{"spotlights": 12}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateSessionRejectsInvalidScene(t *testing.T) {
	r := newTestRouter(t)

	for _, body := range []string{
		`{"spotlights":[]}`,
		`{"spotlights":[{"id":1},{"id":1}]}`,
		`{"spotlights":[{"id":-1}]}`,
		`{"spotlights":[{"id":1},{"id":2},{"id":3},{"id":4},{"id":5},{"id":6},{"id":7}]}`,
	} {
		w := do(r, http.MethodPost, "/api/v1/sessions", "", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	w := do(r, http.MethodPost, "/api/v1/sessions", "", `{"spotlights":[{"id":3,"x":20}]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		Scene struct {
			Spotlights []struct {
				ID     int     `json:"id"`
				X      float64 `json:"x"`
				Width  float64 `json:"width"`
				Height float64 `json:"height"`
			} `json:"spotlights"`
			LastID int `json:"lastId"`
		} `json:"scene"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.Len(t, created.Scene.Spotlights, 1)
	assert.Equal(t, 20.0, created.Scene.Spotlights[0].X)
	assert.Equal(t, 400.0, created.Scene.Spotlights[0].Width, "omitted geometry takes the defaults")
	assert.Equal(t, 400.0, created.Scene.Spotlights[0].Height)
	assert.Equal(t, 3, created.Scene.LastID)
}

func TestSessionRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)
	a := createSession(t, r)
	b := createSession(t, r)

	w := do(r, http.MethodGet, "/api/v1/sessions/"+a.SessionID, "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/api/v1/sessions/"+a.SessionID, b.Token, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodGet, "/api/v1/sessions/"+a.SessionID+"?token="+a.Token, "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSpotlightMutations(t *testing.T) {
	r := newTestRouter(t)
	s := createSession(t, r)
	base := "/api/v1/sessions/" + s.SessionID

	added := decodeMutation(t, do(r, http.MethodPost, base+"/spotlights", s.Token, ""))
	assert.True(t, added.Changed)
	assert.Equal(t, uint64(1), added.Version)
	require.Len(t, added.Scene.Spotlights, 3)
	assert.Equal(t, 3, added.Scene.Spotlights[2].ID)

	moved := decodeMutation(t, do(r, http.MethodPatch, base+"/spotlights/1", s.Token, `{"field":"x","value":30}`))
	assert.True(t, moved.Changed)
	assert.Equal(t, 30.0, moved.Scene.Spotlights[0].X)

	dup := decodeMutation(t, do(r, http.MethodPost, base+"/spotlights/1/duplicate", s.Token, ""))
	assert.Len(t, dup.Scene.Spotlights, 4)

	mirrored := decodeMutation(t, do(r, http.MethodPost, base+"/spotlights/1/mirror", s.Token, ""))
	assert.Len(t, mirrored.Scene.Spotlights, 5)

	removed := decodeMutation(t, do(r, http.MethodDelete, base+"/spotlights/2", s.Token, ""))
	assert.True(t, removed.Changed)
	assert.Len(t, removed.Scene.Spotlights, 4)

	missing := decodeMutation(t, do(r, http.MethodDelete, base+"/spotlights/99", s.Token, ""))
	assert.False(t, missing.Changed)
	assert.Equal(t, removed.Version, missing.Version)
}

func TestUpdateSpotlightErrors(t *testing.T) {
	r := newTestRouter(t)
	s := createSession(t, r)
	base := "/api/v1/sessions/" + s.SessionID + "/spotlights/"

	tests := []struct {
		name   string
		target string
		body   string
	}{
		{"unknown field", "1", `{"field":"sparkle","value":1}`},
		{"wrong value type", "1", `{"field":"x","value":"left"}`},
		{"inactive field", "1", `{"field":"gradientClass","value":"bg-red-500"}`},
		{"missing value", "1", `{"field":"x"}`},
		{"missing field", "1", `{"value":3}`},
		{"bad spotlight id", "one", `{"field":"x","value":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(r, http.MethodPatch, base+tt.target, s.Token, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestBackgroundAndBlendMode(t *testing.T) {
	r := newTestRouter(t)
	s := createSession(t, r)
	base := "/api/v1/sessions/" + s.SessionID

	w := do(r, http.MethodPut, base+"/background", s.Token, `{"type":"plaid"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	bg := decodeMutation(t, do(r, http.MethodPut, base+"/background", s.Token, `{"type":"dark"}`))
	assert.True(t, bg.Changed)
	assert.Equal(t, "dark", bg.Projection.Background.Type)

	w = do(r, http.MethodPut, base+"/blend-mode", s.Token, `{"mode":"multiply"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	blend := decodeMutation(t, do(r, http.MethodPut, base+"/blend-mode", s.Token, `{"mode":"blend"}`))
	assert.True(t, blend.Changed)
	assert.Equal(t, "blend", blend.Scene.BlendMode)
	assert.Equal(t, "screen", blend.Projection.BlendMode)

	again := decodeMutation(t, do(r, http.MethodPut, base+"/blend-mode", s.Token, `{"mode":"blend"}`))
	assert.False(t, again.Changed)
}

func TestMarkupAndPreview(t *testing.T) {
	r := newTestRouter(t)
	s := createSession(t, r)
	base := "/api/v1/sessions/" + s.SessionID

	w := do(r, http.MethodGet, base+"/markup", s.Token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "spotlight-scene")
	assert.Contains(t, w.Body.String(), "feGaussianBlur")

	w = do(r, http.MethodGet, base+"/preview.png?width=64", s.Token, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 36, img.Bounds().Dy())

	w = do(r, http.MethodGet, base+"/preview.webp?width=64&height=64", s.Token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/webp", w.Header().Get("Content-Type"))

	w = do(r, http.MethodGet, base+"/preview.png?width=wide", s.Token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodGet, base+"/preview.png?width=100000", s.Token, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeletedSessionIsGone(t *testing.T) {
	r := newTestRouter(t)
	s := createSession(t, r)
	base := "/api/v1/sessions/" + s.SessionID

	w := do(r, http.MethodDelete, base, s.Token, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, base, s.Token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(r, http.MethodPost, base+"/spotlights", s.Token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatelessProjection(t *testing.T) {
	r := newTestRouter(t)
	body := `{"spotlights":[{"id":1,"source":"gradient","gradientClass":"bg-red-500","blurIntensity":10,"width":50,"height":50,"x":50,"y":50,"rotation":0,"opacity":1,"flipX":false}],"background":{"type":"transparent"},"blendMode":"absolute","lastId":1}`

	w := do(r, http.MethodPost, "/api/v1/project", "", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var p struct {
		Shapes []struct {
			Kind      string `json:"kind"`
			ClassName string `json:"className"`
		} `json:"shapes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	require.Len(t, p.Shapes, 1)
	assert.Equal(t, "class", p.Shapes[0].Kind)
	assert.Equal(t, "bg-red-500", p.Shapes[0].ClassName)

	w = do(r, http.MethodPost, "/api/v1/project", "", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/project", "", `{"spotlights":[{"id":2},{"id":2}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/api/v1/project", "", `{"spotlights":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCode(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/v1/code", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "feGaussianBlur")

	w = do(r, http.MethodGet, "/api/v1/code?format=html", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	w = do(r, http.MethodGet, "/api/v1/code?format=pdf", "", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSysOpRoutes(t *testing.T) {
	r := newTestRouter(t)
	createSession(t, r)

	w := do(r, http.MethodGet, "/api/v1/sysop/stats", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	sysop := func(method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(middleware.SysOpTokenHeader, testSysopToken)
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w = sysop(http.MethodGet, "/api/v1/sysop/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stats services.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.ActiveSessions)
	assert.Equal(t, 4, stats.MaxSessions)

	w = sysop(http.MethodGet, "/api/v1/sysop/perf", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = sysop(http.MethodGet, "/api/v1/sysop/logs/levels", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = sysop(http.MethodPost, "/api/v1/sysop/logs/levels", `{"channel":"editor","level":"DEBUG"}`)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = sysop(http.MethodPost, "/api/v1/sysop/logs/levels", `{"channel":"nowhere","level":"DEBUG"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionStream(t *testing.T) {
	r := newTestRouter(t)
	s := createSession(t, r)

	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/" + s.SessionID + "/ws?token=" + s.Token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var event struct {
		Type    string `json:"type"`
		Version uint64 `json:"version"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, messaging.EventSceneUpdated, event.Type)
	assert.Equal(t, uint64(0), event.Version)

	w := do(r, http.MethodPost, "/api/v1/sessions/"+s.SessionID+"/spotlights", s.Token, "")
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, messaging.EventSceneUpdated, event.Type)
	assert.Equal(t, uint64(1), event.Version)

	w = do(r, http.MethodDelete, "/api/v1/sessions/"+s.SessionID, s.Token, "")
	require.Equal(t, http.StatusOK, w.Code)

	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, messaging.EventSessionEnded, event.Type)
}

func TestSessionStreamOrdersSnapshotAndUpdates(t *testing.T) {
	r := newTestRouter(t)
	s := createSession(t, r)

	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/" + s.SessionID + "/ws?token=" + s.Token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// mutate before reading anything
	for i := 0; i < 4; i++ {
		body := fmt.Sprintf(`{"field":"x","value":%d}`, 10+i)
		w := do(r, http.MethodPatch, "/api/v1/sessions/"+s.SessionID+"/spotlights/1", s.Token, body)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var last uint64
	for first := true; last < 4; first = false {
		var event struct {
			Type    string `json:"type"`
			Version uint64 `json:"version"`
		}
		require.NoError(t, conn.ReadJSON(&event))
		assert.Equal(t, messaging.EventSceneUpdated, event.Type)
		if !first {
			assert.Equal(t, last+1, event.Version, "versions never repeat or go backwards")
		}
		last = event.Version
	}
	assert.Equal(t, uint64(4), last)
}

func TestSessionStreamRequiresToken(t *testing.T) {
	r := newTestRouter(t)
	s := createSession(t, r)

	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/sessions/" + s.SessionID + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
