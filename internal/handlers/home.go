package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tacticboard/internal/editor"
	"tacticboard/internal/viewmodel"
	"tacticboard/views/pages"
)

type HomeHandler struct {
	store *editor.Store
}

func NewHomeHandler(store *editor.Store) *HomeHandler {
	return &HomeHandler{store: store}
}

func (h *HomeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Post("/boards", h.createBoard)
}

func (h *HomeHandler) home(w http.ResponseWriter, r *http.Request) {
	render(w, r, pages.HomePage(viewmodel.HomePage{
		Title:  "Tactic board",
		Boards: h.store.Boards(),
	}))
}

func (h *HomeHandler) createBoard(w http.ResponseWriter, r *http.Request) {
	board := h.store.CreateBoard()
	if r.Header.Get("Accept") == "application/json" {
		writeJSON(w, http.StatusCreated, map[string]string{"id": board.ID})
		return
	}
	http.Redirect(w, r, "/board/"+board.ID, http.StatusSeeOther)
}
