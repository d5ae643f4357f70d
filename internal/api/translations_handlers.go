package api

import (
	"errors"
	"net/http"
	"strings"

	"golang.org/x/text/language"

	"portfolio-live/internal/storage"
)

// TranslationsIndex serves GET /api/translations with the available locales.
func (h *Handler) TranslationsIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"locales": h.Store.ListLocales()})
}

// TranslationsByLocale serves GET/PUT/DELETE /api/translations/{locale}.
// Reads fall back to the closest stored locale when the exact one is missing,
// so a pt-PT browser still receives the pt-BR dictionary.
func (h *Handler) TranslationsByLocale(w http.ResponseWriter, r *http.Request) {
	locale := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/translations/"), "/")
	if locale == "" || strings.Contains(locale, "/") {
		writeError(w, http.StatusNotFound, CodeNotFound, "locale not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		translation, ok := h.Store.GetTranslation(locale)
		if !ok {
			matched, found := h.matchLocale(locale)
			if !found {
				writeError(w, http.StatusNotFound, CodeNotFound, "no translation available for locale")
				return
			}
			translation, ok = h.Store.GetTranslation(matched)
			if !ok {
				writeError(w, http.StatusNotFound, CodeNotFound, "no translation available for locale")
				return
			}
		}
		writeJSON(w, http.StatusOK, translation)
	case http.MethodPut:
		if _, ok := h.requireAdmin(w, r); !ok {
			return
		}
		if _, err := language.Parse(locale); err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid locale identifier")
			return
		}
		var payload struct {
			Entries map[string]string `json:"entries"`
		}
		if err := decodeJSON(r, &payload); err != nil {
			writeDecodeError(w, err)
			return
		}
		translation, err := h.Store.UpsertTranslation(locale, payload.Entries)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
			return
		}
		h.publishUpdate("translations", map[string]interface{}{"locale": translation.Locale})
		writeJSON(w, http.StatusOK, translation)
	case http.MethodDelete:
		if _, ok := h.requireAdmin(w, r); !ok {
			return
		}
		if err := h.Store.DeleteTranslation(locale); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				writeError(w, http.StatusNotFound, CodeNotFound, "locale not found")
				return
			}
			writeError(w, http.StatusInternalServerError, CodeInternalError, "failed to delete translation")
			return
		}
		writeJSON(w, http.StatusNoContent, nil)
	default:
		writeError(w, http.StatusMethodNotAllowed, CodeMethodNotAllowed, "method not allowed")
	}
}

// matchLocale finds the best stored locale for the requested tag.
func (h *Handler) matchLocale(requested string) (string, bool) {
	available := h.Store.ListLocales()
	if len(available) == 0 {
		return "", false
	}
	tags := make([]language.Tag, 0, len(available))
	valid := make([]string, 0, len(available))
	for _, locale := range available {
		tag, err := language.Parse(locale)
		if err != nil {
			continue
		}
		tags = append(tags, tag)
		valid = append(valid, locale)
	}
	if len(tags) == 0 {
		return "", false
	}
	wanted, err := language.Parse(requested)
	if err != nil {
		return "", false
	}
	matcher := language.NewMatcher(tags)
	_, index, confidence := matcher.Match(wanted)
	if confidence == language.No {
		return "", false
	}
	return valid[index], true
}
