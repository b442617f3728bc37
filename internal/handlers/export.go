package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"tacticboard/internal/export"
	"tacticboard/internal/field"
	"tacticboard/internal/viewmodel"
	"tacticboard/views/pages"
)

const (
	msgInvalidFieldState = "Invalid field state provided"
	msgExportFailed      = "Failed to export field"

	// DefaultRenderSettle is the pause the render-only view takes after two
	// painted frames before it reports itself ready. Chrome needs about a
	// second for the 3D transform and marker fonts to land.
	DefaultRenderSettle = time.Second
)

var errNoPlayers = errors.New("players must be a non-empty array")

type jsonKind string

const (
	jsonNumber jsonKind = "a number"
	jsonString jsonKind = "a string"
	jsonBool   jsonKind = "a boolean"
)

// matches reports whether raw is a JSON value of kind k. null matches nothing.
func (k jsonKind) matches(raw json.RawMessage) bool {
	v := bytes.TrimSpace(raw)
	if len(v) == 0 {
		return false
	}
	switch k {
	case jsonNumber:
		return v[0] == '-' || (v[0] >= '0' && v[0] <= '9')
	case jsonString:
		return v[0] == '"'
	case jsonBool:
		return bytes.Equal(v, []byte("true")) || bytes.Equal(v, []byte("false"))
	}
	return false
}

// fieldStateKeys are the keys every export request spells out. Defaults
// apply to the editor's own snapshots, never to a client's.
var fieldStateKeys = []struct {
	name string
	kind jsonKind
}{
	{"rotationAngle", jsonNumber},
	{"tiltAngle", jsonNumber},
	{"zoomLevel", jsonNumber},
	{"fieldColor", jsonString},
	{"showPlayerLabels", jsonBool},
	{"markerType", jsonString},
	{"isWaypointsMode", jsonBool},
	{"showHorizontalZones", jsonBool},
	{"showVerticalZones", jsonBool},
}

// FieldKeyError names a field state key that is missing or has the wrong
// JSON type.
type FieldKeyError struct {
	Key  string
	Want string
}

func (e *FieldKeyError) Error() string {
	return fmt.Sprintf("%q is required and must be %s", e.Key, e.Want)
}

// Exporter turns snapshots into images.
type Exporter interface {
	Export(ctx context.Context, s field.Snapshot, f export.Format) (export.Result, error)
	Inbox() *export.Inbox
}

type ExportHandler struct {
	exporter Exporter
	validate *validator.Validate
	log      *zap.Logger
	settle   time.Duration
}

func NewExportHandler(exporter Exporter, log *zap.Logger) *ExportHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ExportHandler{
		exporter: exporter,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log.Named("export"),
		settle:   DefaultRenderSettle,
	}
}

// SetRenderSettle changes the pause the render-only view takes before it
// reports ready.
func (h *ExportHandler) SetRenderSettle(d time.Duration) {
	h.settle = d
}

func (h *ExportHandler) RegisterRoutes(r chi.Router) {
	r.Route("/export", func(r chi.Router) {
		r.Post("/field", h.exportField)
		r.Get("/render/{token}", h.renderOnly)
	})
}

type exportRequest struct {
	field.Snapshot
	Format string `json:"format" validate:"omitempty,oneof=png jpeg jpg PNG JPEG JPG"`
}

// exportField renders a client-supplied snapshot. The request must carry a
// non-empty players array and every field state key with its JSON type;
// value constraints are checked after.
func (h *ExportHandler) exportField(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := checkFieldState(body); err != nil {
		var keyErr *FieldKeyError
		if errors.As(err, &keyErr) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: msgInvalidFieldState, Message: keyErr.Error()})
			return
		}
		writeError(w, http.StatusBadRequest, msgInvalidFieldState)
		return
	}
	var req exportRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if err := h.validate.StructCtx(r.Context(), req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("validation failed: %v", err))
		return
	}
	if err := req.Snapshot.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.serveExport(w, r, req.Snapshot, format)
}

// serveExport runs one export and writes the image or the failure body.
func (h *ExportHandler) serveExport(w http.ResponseWriter, r *http.Request, s field.Snapshot, format export.Format) {
	res, err := h.exporter.Export(r.Context(), s, format)
	if errors.Is(err, field.ErrInvalidSnapshot) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.log.Error("export failed", zap.Error(err), zap.String("job", res.Job.ID))
		writeJSON(w, http.StatusInternalServerError, errorBody{
			Error:   msgExportFailed,
			Message: err.Error(),
		})
		return
	}
	writeImage(w, res.Image, format)
}

func writeImage(w http.ResponseWriter, img []byte, format export.Format) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.Filename()))
	w.Header().Set("Content-Length", strconv.Itoa(len(img)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

// renderOnly serves the headless export view for a parked snapshot. The
// token is single use.
func (h *ExportHandler) renderOnly(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	snap, ok := h.exporter.Inbox().Take(token)
	if !ok {
		http.NotFound(w, r)
		return
	}
	render(w, r, pages.RenderPage(viewmodel.RenderPage{
		Token: token,
		Field: viewmodel.FieldFragment{
			View:       field.Resolve(snap, field.DefaultViewport()),
			RenderOnly: true,
		},
		SettleMs: int(h.settle / time.Millisecond),
	}))
}

func checkFieldState(body []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return err
	}
	var players []json.RawMessage
	if err := json.Unmarshal(raw["players"], &players); err != nil || len(players) == 0 {
		return errNoPlayers
	}
	for _, k := range fieldStateKeys {
		if v, ok := raw[k.name]; !ok || !k.kind.matches(v) {
			return &FieldKeyError{Key: k.name, Want: string(k.kind)}
		}
	}
	return nil
}
