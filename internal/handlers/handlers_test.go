package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tacticboard/internal/editor"
	"tacticboard/internal/export"
	"tacticboard/internal/field"
	"tacticboard/internal/tactic"
)

type testEnv struct {
	router  chi.Router
	store   *editor.Store
	bridge  *export.Bridge
	exports *ExportHandler
	tactics *tactic.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zaptest.NewLogger(t)

	store := editor.NewStore(log, time.Millisecond)
	t.Cleanup(store.Close)

	inbox := export.NewInbox(0)
	engine := export.NewRasterEngine(inbox, field.Viewport{Width: 170, Height: 262, MarkerSize: 24}, 1)
	bridge, err := export.NewBridge(engine, inbox, export.Options{}, log, noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	repo, err := tactic.NewRepository(db, log)
	require.NoError(t, err)

	r := chi.NewRouter()
	exports := NewExportHandler(bridge, log)
	NewHomeHandler(store).RegisterRoutes(r)
	NewBoardHandler(store, exports, repo, log).RegisterRoutes(r)
	exports.RegisterRoutes(r)

	return &testEnv{router: r, store: store, bridge: bridge, exports: exports, tactics: repo}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	switch b := body.(type) {
	case nil:
		rd = bytes.NewReader(nil)
	case string:
		rd = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) newBoard(t *testing.T) string {
	t.Helper()
	return e.store.CreateBoard().ID
}

func (e *testEnv) snapshot(t *testing.T, id string) field.Snapshot {
	t.Helper()
	rec := e.do(t, http.MethodGet, "/board/"+id+"/snapshot", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	s, err := field.Decode(rec.Body.Bytes())
	require.NoError(t, err)
	return s
}

const keeperBody = `{
	"rotationAngle": 0, "tiltAngle": 0, "zoomLevel": 1,
	"fieldColor": "#0d4b3e", "showPlayerLabels": true, "markerType": "circle",
	"isWaypointsMode": false, "showHorizontalZones": false, "showVerticalZones": false,
	"players": [{"id": 1, "x": 50, "y": 90, "number": 1, "name": "Keeper", "position": "GK"}],
	"format": "png"
}`

func TestExportField_KeeperPNG(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/export/field", keeperBody)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="lineup-field.png"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, strconv.Itoa(rec.Body.Len()), rec.Header().Get("Content-Length"))

	img, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 170, img.Bounds().Dx())
	assert.Equal(t, 262, img.Bounds().Dy())
}

func TestExportField_JPEG(t *testing.T) {
	env := newTestEnv(t)
	body := strings.Replace(keeperBody, `"format": "png"`, `"format": "jpg"`, 1)
	rec := env.do(t, http.MethodPost, "/export/field", body)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="lineup-field.jpg"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte{0xff, 0xd8}))
}

func TestExportField_InvalidFieldState(t *testing.T) {
	env := newTestEnv(t)
	for _, body := range []string{
		`{}`,
		`{"players": {}}`,
		`{"players": []}`,
		`{"players": null}`,
		`{"players": "eleven"}`,
		``,
	} {
		rec := env.do(t, http.MethodPost, "/export/field", body)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)

		var got errorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, errorBody{Success: false, Error: "Invalid field state provided"}, got, body)
	}
}

func TestExportField_RequiredStateKeys(t *testing.T) {
	env := newTestEnv(t)
	keys := map[string][]string{
		"rotationAngle":       {`"0"`, `true`, `null`},
		"tiltAngle":           {`"20"`, `false`, `null`},
		"zoomLevel":           {`"1"`, `[]`, `null`},
		"fieldColor":          {`0`, `false`, `null`},
		"showPlayerLabels":    {`"yes"`, `1`, `null`},
		"markerType":          {`1`, `{}`, `null`},
		"isWaypointsMode":     {`"false"`, `0`, `null`},
		"showHorizontalZones": {`"no"`, `0`, `null`},
		"showVerticalZones":   {`"no"`, `1`, `null`},
	}
	check := func(t *testing.T, key string, body map[string]json.RawMessage) {
		t.Helper()
		rec := env.do(t, http.MethodPost, "/export/field", body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var got errorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.False(t, got.Success)
		assert.Equal(t, "Invalid field state provided", got.Error)
		assert.Contains(t, got.Message, key)
	}
	for key, wrong := range keys {
		t.Run(key+" missing", func(t *testing.T) {
			var body map[string]json.RawMessage
			require.NoError(t, json.Unmarshal([]byte(keeperBody), &body))
			require.Contains(t, body, key)
			delete(body, key)
			check(t, key, body)
		})
		for _, v := range wrong {
			t.Run(key+" as "+v, func(t *testing.T) {
				var body map[string]json.RawMessage
				require.NoError(t, json.Unmarshal([]byte(keeperBody), &body))
				body[key] = json.RawMessage(v)
				check(t, key, body)
			})
		}
	}
	assert.Zero(t, env.bridge.Inbox().Len())
}

func TestExportField_OtherValidationFailures(t *testing.T) {
	env := newTestEnv(t)
	cases := map[string]string{
		"format":       strings.Replace(keeperBody, `"format": "png"`, `"format": "gif"`, 1),
		"marker type":  strings.Replace(keeperBody, `"markerType": "circle"`, `"markerType": "hex"`, 1),
		"field colour": strings.Replace(keeperBody, `"fieldColor": "#0d4b3e"`, `"fieldColor": "grass"`, 1),
		"rgb colour":   strings.Replace(keeperBody, `"fieldColor": "#0d4b3e"`, `"fieldColor": "rgb(200,0,0)"`, 1),
		"duplicate ids": strings.Replace(keeperBody,
			`"players": [{"id": 1, "x": 50, "y": 90, "number": 1, "name": "Keeper", "position": "GK"}]`,
			`"players": [{"id": 1, "x": 1, "y": 1, "number": 1}, {"id": 1, "x": 2, "y": 2, "number": 2}]`, 1),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/export/field", body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			var got errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.False(t, got.Success)
			assert.NotEmpty(t, got.Error)
			assert.NotEqual(t, "Invalid field state provided", got.Error)
		})
	}
}

type failingExporter struct{ inbox *export.Inbox }

func (f failingExporter) Export(context.Context, field.Snapshot, export.Format) (export.Result, error) {
	return export.Result{}, fmt.Errorf("%w: browser went away", export.ErrRender)
}

func (f failingExporter) Inbox() *export.Inbox { return f.inbox }

func TestExportField_RenderFailure(t *testing.T) {
	r := chi.NewRouter()
	NewExportHandler(failingExporter{inbox: export.NewInbox(0)}, zaptest.NewLogger(t)).RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodPost, "/export/field", strings.NewReader(keeperBody))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var got errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.False(t, got.Success)
	assert.Equal(t, "Failed to export field", got.Error)
	assert.Contains(t, got.Message, "browser went away")
}

func TestExportField_Concurrent(t *testing.T) {
	env := newTestEnv(t)
	const n = 8
	var wg sync.WaitGroup
	codes := make([]int, n)
	sizes := make([]int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := strings.Replace(keeperBody, `"x": 50`, fmt.Sprintf(`"x": %d`, 10+i*10), 1)
			req := httptest.NewRequest(http.MethodPost, "/export/field", strings.NewReader(body))
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)
			codes[i] = rec.Code
			if _, err := png.Decode(bytes.NewReader(rec.Body.Bytes())); err == nil {
				sizes[i] = rec.Body.Len()
			}
		}(i)
	}
	wg.Wait()
	for i := 0; i < n; i++ {
		assert.Equal(t, http.StatusOK, codes[i])
		assert.Positive(t, sizes[i])
	}
	assert.Zero(t, env.bridge.Inbox().Len())
}

func TestRenderOnly_SingleUse(t *testing.T) {
	env := newTestEnv(t)
	s, err := field.Decode([]byte(keeperBody))
	require.NoError(t, err)
	token := env.bridge.Inbox().Put(s)

	rec := env.do(t, http.MethodGet, "/export/render/"+token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	html := rec.Body.String()
	assert.Contains(t, html, `id="pitch-container"`)
	assert.Contains(t, html, `data-field-ready="false"`)
	assert.Contains(t, html, `data-field-ready","true"`)
	assert.Contains(t, html, `data-settle-ms="1000"`)
	assert.Contains(t, html, "Keeper")
	assert.NotContains(t, html, `id="toolbar"`)

	rec = env.do(t, http.MethodGet, "/export/render/"+token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodGet, "/export/render/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRenderOnly_SettleIsConfigurable(t *testing.T) {
	env := newTestEnv(t)
	env.exports.SetRenderSettle(250 * time.Millisecond)
	s, err := field.Decode([]byte(keeperBody))
	require.NoError(t, err)
	token := env.bridge.Inbox().Put(s)

	rec := env.do(t, http.MethodGet, "/export/render/"+token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `data-settle-ms="250"`)
}

func TestHome_CreateBoard(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/boards", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc := rec.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/board/"))

	page := env.do(t, http.MethodGet, loc, nil)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), `id="pitch-container"`)
	assert.Contains(t, page.Body.String(), `id="toolbar"`)

	home := env.do(t, http.MethodGet, "/", nil)
	assert.Contains(t, home.Body.String(), strings.TrimPrefix(loc, "/board/"))
}

func TestBoard_Unknown(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/board/missing/", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/board/missing/reset", nil).Code)
}

func TestBoard_DragAndPerspective(t *testing.T) {
	env := newTestEnv(t)
	id := env.newBoard(t)

	rec := env.do(t, http.MethodPost, "/board/"+id+"/drag/begin", map[string]any{"playerId": 1})
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodPost, "/board/"+id+"/drag/move", map[string]any{
		"clientX":   340,
		"clientY":   525,
		"container": map[string]float64{"left": 0, "top": 0, "width": 680, "height": 1050},
	})
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodPost, "/board/"+id+"/drag/end", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	s := env.snapshot(t, id)
	assert.Equal(t, 50.0, s.Players[0].X)
	assert.Equal(t, 50.0, s.Players[0].Y)

	// stale move after the drag ended changes nothing
	rec = env.do(t, http.MethodPost, "/board/"+id+"/drag/move", map[string]any{"clientX": 0, "clientY": 0})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 50.0, env.snapshot(t, id).Players[0].X)

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/board/"+id+"/perspective/rotate-left", nil).Code)
	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/board/"+id+"/perspective/tilt-up", nil).Code)
	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/board/"+id+"/perspective/zoom-in", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/board/"+id+"/perspective/spin", nil).Code)

	s = env.snapshot(t, id)
	assert.Equal(t, 345.0, s.RotationAngle)
	assert.Equal(t, 5.0, s.TiltAngle)
	assert.Equal(t, 1.2, s.ZoomLevel)
}

func TestBoard_MenuActions(t *testing.T) {
	env := newTestEnv(t)
	id := env.newBoard(t)

	rec := env.do(t, http.MethodPost, "/board/"+id+"/menu/action", map[string]string{"action": "captain"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/board/"+id+"/menu/open", map[string]any{"playerId": 4}).Code)
	menu := env.do(t, http.MethodGet, "/board/"+id+"/menu", nil)
	assert.Contains(t, menu.Body.String(), `data-action="captain"`)
	assert.Contains(t, menu.Body.String(), "Player 4")

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/board/"+id+"/menu/action", map[string]string{"action": "captain"}).Code)
	assert.True(t, env.snapshot(t, id).Players[3].IsCaptain)

	// a second captain is refused while the first keeps the armband
	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/board/"+id+"/menu/open", map[string]any{"playerId": 5}).Code)
	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, "/board/"+id+"/menu/action", map[string]string{"action": "captain"}).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/board/"+id+"/menu/action", map[string]string{"action": "sub"}).Code)

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/board/"+id+"/menu/action", map[string]string{"action": "remove"}).Code)
	assert.Len(t, env.snapshot(t, id).Players, 10)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/board/"+id+"/menu/open", map[string]any{"playerId": 99}).Code)
}

func TestBoard_OptionsAndReadOnly(t *testing.T) {
	env := newTestEnv(t)
	id := env.newBoard(t)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/board/"+id+"/options", map[string]any{"markerType": "hex"}).Code)

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/board/"+id+"/options", map[string]any{"markerType": "shirt", "editable": false}).Code)
	s := env.snapshot(t, id)
	assert.Equal(t, field.MarkerShirt, s.MarkerType)
	assert.True(t, s.ShowPlayerLabels)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/board/"+id+"/drag/begin", map[string]any{"playerId": 1}).Code)
	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, "/board/"+id+"/menu/open", map[string]any{"playerId": 1}).Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/board/"+id+"/formation", map[string]string{"formation": "4-3-3"}).Code)
}

func TestBoard_WaypointsZonesFormation(t *testing.T) {
	env := newTestEnv(t)
	id := env.newBoard(t)

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/board/"+id+"/waypoints/mode", map[string]bool{"enabled": true}).Code)
	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/board/"+id+"/waypoints/click", map[string]int{"playerId": 1}).Code)
	rec := env.do(t, http.MethodPost, "/board/"+id+"/waypoints/click", map[string]int{"playerId": 2})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"from": 1, "to": 2}`, rec.Body.String())
	assert.Len(t, env.snapshot(t, id).Waypoints, 1)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodDelete, "/board/"+id+"/waypoints/5", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodDelete, "/board/"+id+"/waypoints/x", nil).Code)
	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/board/"+id+"/waypoints/0", nil).Code)
	assert.Empty(t, env.snapshot(t, id).Waypoints)

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/board/"+id+"/zones", map[string]bool{"horizontal": true}).Code)
	s := env.snapshot(t, id)
	assert.True(t, s.ShowHorizontalZones)
	assert.False(t, s.ShowVerticalZones)
	assert.Contains(t, env.do(t, http.MethodGet, "/board/"+id+"/field", nil).Body.String(), "Attacking third")

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/board/"+id+"/formation", map[string]string{"formation": "4-4"}).Code)
	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/board/"+id+"/formation", map[string]string{"formation": "4-3-3"}).Code)
	assert.Contains(t, env.do(t, http.MethodGet, "/board/"+id+"/toolbar", nil).Body.String(), `value="4-3-3" selected`)

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/board/"+id+"/reset", nil).Code)
	s = env.snapshot(t, id)
	assert.False(t, s.ShowHorizontalZones)
	assert.False(t, s.IsWaypointsMode)
}

func TestBoard_LoadSnapshot(t *testing.T) {
	env := newTestEnv(t)
	id := env.newBoard(t)

	rec := env.do(t, http.MethodPut, "/board/"+id+"/snapshot", keeperBody)
	require.Equal(t, http.StatusNoContent, rec.Code)
	s := env.snapshot(t, id)
	require.Len(t, s.Players, 1)
	assert.Equal(t, "Keeper", s.Players[0].Name)

	twoCaptains := `{"players": [{"id": 1, "number": 1, "isCaptain": true}, {"id": 2, "number": 2, "isCaptain": true}]}`
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/board/"+id+"/snapshot", twoCaptains).Code)
}

func TestBoard_ExportLeavesBoardUntouched(t *testing.T) {
	env := newTestEnv(t)
	id := env.newBoard(t)
	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/board/"+id+"/perspective/rotate-right", nil).Code)
	before := env.snapshot(t, id)

	rec := env.do(t, http.MethodPost, "/board/"+id+"/export?format=jpeg", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, before, env.snapshot(t, id))

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/board/"+id+"/export?format=bmp", nil).Code)
}

func TestBoard_Publish(t *testing.T) {
	env := newTestEnv(t)
	id := env.newBoard(t)
	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/board/"+id+"/formation", map[string]string{"formation": "4-3-3"}).Code)

	rec := env.do(t, http.MethodPost, "/board/"+id+"/publish", map[string]any{
		"title": "  Wide attack ",
		"tags":  []string{"wide", " wide", "", "overlap"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var got struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Success)

	saved, err := env.tactics.Get(context.Background(), got.ID)
	require.NoError(t, err)
	assert.Equal(t, "Wide attack", saved.Title)
	assert.Equal(t, "4-3-3", saved.Formation)
	assert.Equal(t, []string{"wide", "overlap"}, saved.Tags)
	assert.Len(t, saved.Players, 11)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/board/"+id+"/publish", map[string]any{"title": ""}).Code)
}

func TestBoard_Stream(t *testing.T) {
	env := newTestEnv(t)
	id := env.newBoard(t)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/board/"+id+"/stream", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan string, 16)
	go func() {
		sc := bufio.NewScanner(resp.Body)
		sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for sc.Scan() {
			if ev, ok := strings.CutPrefix(sc.Text(), "event: "); ok {
				events <- ev
			}
		}
		close(events)
	}()

	next := func() string {
		select {
		case ev := <-events:
			return ev
		case <-ctx.Done():
			return ""
		}
	}
	assert.Equal(t, editor.EventField, next())
	assert.Equal(t, editor.EventMenu, next())
	assert.Equal(t, editor.EventOptions, next())

	require.Equal(t, http.StatusNoContent, env.do(t, http.MethodPost, "/board/"+id+"/perspective/rotate-right", nil).Code)
	assert.Equal(t, editor.EventField, next())
}
