package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"tacticboard/internal/annotation"
	"tacticboard/internal/editor"
	"tacticboard/internal/export"
	"tacticboard/internal/field"
	"tacticboard/internal/pitch"
	"tacticboard/internal/tactic"
	"tacticboard/internal/viewmodel"
	"tacticboard/views/components"
	"tacticboard/views/pages"
)

// TacticStore is where published lineups go.
type TacticStore interface {
	Save(ctx context.Context, t tactic.Tactic) (string, error)
}

type BoardHandler struct {
	store   *editor.Store
	exports *ExportHandler
	tactics TacticStore
	log     *zap.Logger
}

func NewBoardHandler(store *editor.Store, exports *ExportHandler, tactics TacticStore, log *zap.Logger) *BoardHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &BoardHandler{store: store, exports: exports, tactics: tactics, log: log.Named("board")}
}

func (h *BoardHandler) RegisterRoutes(r chi.Router) {
	r.Route("/board/{id}", func(r chi.Router) {
		r.Get("/", h.boardPage)
		r.Delete("/", h.deleteBoard)
		r.Get("/field", h.fieldFragment)
		r.Get("/menu", h.menuFragment)
		r.Get("/toolbar", h.toolbarFragment)
		r.Get("/snapshot", h.snapshot)
		r.Put("/snapshot", h.loadSnapshot)
		r.Get("/stream", h.stream)
		r.Post("/viewport", h.setViewport)
		r.Post("/drag/begin", h.beginDrag)
		r.Post("/drag/move", h.moveDrag)
		r.Post("/drag/end", h.endDrag)
		r.Post("/perspective/{op}", h.perspective)
		r.Post("/menu/open", h.openMenu)
		r.Post("/menu/close", h.closeMenu)
		r.Post("/menu/action", h.menuAction)
		r.Post("/waypoints/mode", h.waypointMode)
		r.Post("/waypoints/click", h.waypointClick)
		r.Delete("/waypoints/{index}", h.removeWaypoint)
		r.Post("/zones", h.zones)
		r.Post("/options", h.options)
		r.Post("/formation", h.formation)
		r.Post("/reset", h.reset)
		r.Post("/export", h.export)
		r.Post("/publish", h.publish)
	})
}

func (h *BoardHandler) board(w http.ResponseWriter, r *http.Request) (*editor.Board, bool) {
	board, ok := h.store.GetBoard(chi.URLParam(r, "id"))
	if !ok {
		http.NotFound(w, r)
		return nil, false
	}
	return board, true
}

// done notifies subscribers and answers a mutation.
func (h *BoardHandler) done(w http.ResponseWriter, board *editor.Board) {
	h.store.Notify(board.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *BoardHandler) boardPage(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	st := board.State()
	render(w, r, pages.EditorPage(viewmodel.EditorPage{
		Title:   "Tactic board",
		BoardID: board.ID,
		Field:   buildFieldFragment(st),
		Menu:    buildMenuFragment(st),
		Toolbar: buildToolbarFragment(st),
	}))
}

func (h *BoardHandler) deleteBoard(w http.ResponseWriter, r *http.Request) {
	if !h.store.DeleteBoard(chi.URLParam(r, "id")) {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BoardHandler) fieldFragment(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	render(w, r, components.Field(buildFieldFragment(board.State())))
}

func (h *BoardHandler) menuFragment(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	render(w, r, components.ContextMenu(buildMenuFragment(board.State())))
}

func (h *BoardHandler) toolbarFragment(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	render(w, r, components.Toolbar(buildToolbarFragment(board.State())))
}

func (h *BoardHandler) snapshot(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, board.Snapshot())
}

func (h *BoardHandler) loadSnapshot(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	var s field.Snapshot
	if err := decodeJSON(r, &s); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := board.Load(s); err != nil {
		h.fail(w, err)
		return
	}
	h.done(w, board)
}

func (h *BoardHandler) setViewport(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	var vp field.Viewport
	if err := decodeJSON(r, &vp); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	board.SetViewport(vp)
	h.done(w, board)
}

type playerBody struct {
	PlayerID int  `json:"playerId"`
	Sticky   bool `json:"sticky"`
}

// geometryBody carries rects the client measured. Without a container rect
// the board's projected geometry is used.
type geometryBody struct {
	Container *pitch.Rect        `json:"container,omitempty"`
	Markers   map[int]pitch.Rect `json:"markers,omitempty"`
}

func (g geometryBody) provider() pitch.GeometryProvider {
	if g.Container == nil || g.Container.Empty() {
		return nil
	}
	return pitch.StaticGeometry{Container: *g.Container, Markers: g.Markers}
}

func (h *BoardHandler) beginDrag(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	var body playerBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := board.BeginDrag(body.PlayerID, body.Sticky); err != nil {
		h.fail(w, err)
		return
	}
	h.done(w, board)
}

func (h *BoardHandler) moveDrag(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	var body struct {
		pitch.PointerEvent
		geometryBody
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// A move that arrives after the drag ended is dropped without comment.
	if board.MoveDrag(body.PointerEvent, body.geometryBody.provider()) {
		h.store.Notify(board.ID)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BoardHandler) endDrag(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	board.EndDrag()
	h.done(w, board)
}

func (h *BoardHandler) perspective(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	if err := board.ApplyPerspective(editor.PerspectiveOp(chi.URLParam(r, "op"))); err != nil {
		h.fail(w, err)
		return
	}
	h.done(w, board)
}

func (h *BoardHandler) openMenu(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	var body struct {
		playerBody
		geometryBody
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := board.OpenMenu(body.PlayerID, body.geometryBody.provider()); err != nil {
		h.fail(w, err)
		return
	}
	h.done(w, board)
}

func (h *BoardHandler) closeMenu(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	board.CloseMenu()
	h.done(w, board)
}

const actionRemove = "remove"

func (h *BoardHandler) menuAction(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	var body struct {
		Action string `json:"action"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if body.Action == actionRemove {
		menu, _ := board.Menu()
		if !menu.Visible {
			h.fail(w, editor.ErrMenuClosed)
			return
		}
		board.CloseMenu()
		if err := board.RemovePlayer(menu.PlayerID); err != nil {
			h.fail(w, err)
			return
		}
		h.done(w, board)
		return
	}
	action, err := annotation.ParseAction(body.Action)
	if err != nil {
		h.fail(w, err)
		return
	}
	if err := board.ApplyMenuAction(action); err != nil {
		h.fail(w, err)
		return
	}
	h.done(w, board)
}

func (h *BoardHandler) waypointMode(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	board.SetWaypointMode(body.Enabled)
	h.done(w, board)
}

func (h *BoardHandler) waypointClick(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	var body playerBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	wp, emitted := board.ClickPlayer(body.PlayerID)
	h.store.Notify(board.ID)
	if emitted {
		writeJSON(w, http.StatusCreated, wp)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BoardHandler) removeWaypoint(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid waypoint index")
		return
	}
	if err := board.RemoveWaypoint(index); err != nil {
		h.fail(w, err)
		return
	}
	h.done(w, board)
}

func (h *BoardHandler) zones(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	var body struct {
		Horizontal bool `json:"horizontal"`
		Vertical   bool `json:"vertical"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	board.SetZones(body.Horizontal, body.Vertical)
	h.done(w, board)
}

func (h *BoardHandler) options(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	opts := board.Options()
	if err := decodeJSON(r, &opts); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := board.SetOptions(opts); err != nil {
		h.fail(w, err)
		return
	}
	h.done(w, board)
}

func (h *BoardHandler) formation(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	var body struct {
		Formation string `json:"formation"`
	}
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := board.ApplyFormation(strings.TrimSpace(body.Formation)); err != nil {
		h.fail(w, err)
		return
	}
	h.done(w, board)
}

func (h *BoardHandler) reset(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	board.Reset()
	h.done(w, board)
}

// export renders the board as it stands. The board itself is never touched,
// whether the export succeeds or not.
func (h *BoardHandler) export(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.exports.serveExport(w, r, board.Snapshot(), format)
}

type publishRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func (h *BoardHandler) publish(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	var body publishRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tags := lo.Uniq(lo.Compact(lo.Map(body.Tags, func(t string, _ int) string { return strings.TrimSpace(t) })))
	id, err := h.tactics.Save(r.Context(), tactic.Tactic{
		Title:       strings.TrimSpace(body.Title),
		Description: strings.TrimSpace(body.Description),
		Tags:        tags,
		Formation:   board.Formation(),
		Players:     board.Players(),
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "id": id})
}

// fail maps domain errors onto status codes.
func (h *BoardHandler) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, editor.ErrReadOnly):
		status = http.StatusForbidden
	case errors.Is(err, editor.ErrMenuDisabled),
		errors.Is(err, editor.ErrMenuClosed),
		errors.Is(err, annotation.ErrActionDisabled):
		status = http.StatusConflict
	case errors.Is(err, editor.ErrUnknownOp),
		errors.Is(err, editor.ErrUnknownWaypoint),
		errors.Is(err, annotation.ErrUnknownPlayer):
		status = http.StatusNotFound
	case errors.Is(err, editor.ErrInvalidOptions),
		errors.Is(err, editor.ErrTwoCaptains),
		errors.Is(err, annotation.ErrUnknownAction),
		errors.Is(err, pitch.ErrInvalidFormation),
		errors.Is(err, field.ErrInvalidSnapshot),
		errors.Is(err, tactic.ErrInvalidTactic):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.log.Error("board request failed", zap.Error(err))
	}
	writeError(w, status, err.Error())
}

func (h *BoardHandler) stream(w http.ResponseWriter, r *http.Request) {
	board, ok := h.board(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	hub := h.store.Broadcaster(board.ID)
	if hub == nil {
		http.NotFound(w, r)
		return
	}
	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	send := func(events ...string) {
		st := board.State()
		for _, event := range events {
			switch event {
			case editor.EventField:
				writeSSE(w, event, renderToString(r, components.Field(buildFieldFragment(st))))
			case editor.EventMenu:
				writeSSE(w, event, renderToString(r, components.ContextMenu(buildMenuFragment(st))))
			case editor.EventOptions:
				writeSSE(w, event, renderToString(r, components.Toolbar(buildToolbarFragment(st))))
			}
		}
		flusher.Flush()
	}

	send(editor.EventField, editor.EventMenu, editor.EventOptions)

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-sub:
			if !open {
				return
			}
			// the toolbar shows the perspective readout and toggles
			if event == editor.EventField {
				send(editor.EventField, editor.EventOptions)
				continue
			}
			send(event)
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}

func buildFieldFragment(st editor.State) viewmodel.FieldFragment {
	return viewmodel.FieldFragment{
		BoardID:  st.ID,
		View:     st.View,
		Editable: st.Options.Editable,
		Dragging: st.Dragging,
	}
}

func buildMenuFragment(st editor.State) viewmodel.MenuFragment {
	data := viewmodel.MenuFragment{
		BoardID:  st.ID,
		Visible:  st.Menu.Visible,
		PlayerID: st.Menu.PlayerID,
		X:        st.Menu.Anchor.X,
		Y:        st.Menu.Anchor.Y,
		Items:    st.MenuItems,
	}
	if m, ok := lo.Find(st.View.Markers, func(m field.Marker) bool { return m.ID == st.Menu.PlayerID }); ok {
		data.PlayerName = m.Name
	}
	return data
}

func buildToolbarFragment(st editor.State) viewmodel.ToolbarFragment {
	p := st.View.Perspective
	return viewmodel.ToolbarFragment{
		BoardID:         st.ID,
		Options:         st.Options,
		Formation:       st.Formation,
		Formations:      pitch.Presets,
		Rotation:        p.RotationAngle,
		Tilt:            p.TiltAngle,
		Zoom:            p.ZoomLevel,
		WaypointsMode:   st.View.WaypointsMode,
		HorizontalZones: len(st.View.HorizontalZones) > 0,
		VerticalZones:   len(st.View.VerticalZones) > 0,
	}
}
