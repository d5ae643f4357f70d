package api

import (
	"errors"
	"net/http"
	"strings"

	"portfolio-live/internal/storage"
)

// ThemesIndex serves GET /api/themes.
func (h *Handler) ThemesIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.Store.ListThemes())
}

// ThemesByName serves GET/PUT/DELETE /api/themes/{name} plus
// POST /api/themes/{name}/activate.
func (h *Handler) ThemesByName(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/themes/"), "/")
	if rest == "" {
		writeError(w, http.StatusNotFound, CodeNotFound, "theme not found")
		return
	}

	if name, ok := strings.CutSuffix(rest, "/activate"); ok {
		h.activateTheme(w, r, name)
		return
	}
	if strings.Contains(rest, "/") {
		writeError(w, http.StatusNotFound, CodeNotFound, "theme not found")
		return
	}
	name := rest

	switch r.Method {
	case http.MethodGet:
		theme, ok := h.Store.GetTheme(name)
		if !ok {
			writeError(w, http.StatusNotFound, CodeNotFound, "theme not found")
			return
		}
		writeJSON(w, http.StatusOK, theme)
	case http.MethodPut:
		if _, ok := h.requireAdmin(w, r); !ok {
			return
		}
		var payload struct {
			Palette map[string]string `json:"palette"`
		}
		if err := decodeJSON(r, &payload); err != nil {
			writeDecodeError(w, err)
			return
		}
		theme, err := h.Store.UpsertTheme(name, payload.Palette)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}
		h.publishUpdate("themes", map[string]interface{}{"name": theme.Name})
		writeJSON(w, http.StatusOK, theme)
	case http.MethodDelete:
		if _, ok := h.requireAdmin(w, r); !ok {
			return
		}
		if err := h.Store.DeleteTheme(name); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, CodeNotFound, "theme not found")
				return
			}
			writeError(w, http.StatusInternalServerError, CodeInternalError, "failed to delete theme")
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	default:
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	}
}

func (h *Handler) activateTheme(w http.ResponseWriter, r *http.Request, name string) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
		return
	}
	if _, ok := h.requireAdmin(w, r); !ok {
		return
	}
	theme, err := h.Store.SetActiveTheme(name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, CodeNotFound, "theme not found")
			return
		}
		writeError(w, http.StatusInternalServerError, CodeInternalError, "failed to activate theme")
		return
	}
	h.publishUpdate("themes", map[string]interface{}{"name": theme.Name, "active": true})
	writeJSON(w, http.StatusOK, theme)
}
