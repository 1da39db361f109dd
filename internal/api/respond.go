package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/sapcc/go-bits/respondwith"

	"github.com/yaroslaff/sashimidb/internal/config"
)

// apiError carries an HTTP status code alongside the message that should
// be written to the response body, letting handlers return a single
// error value that respondError turns into the right status code (spec §7).
type apiError struct {
	status int
	msg    string
}

func (e *apiError) Error() string { return e.msg }

func errBadRequest(msg string) error   { return &apiError{http.StatusBadRequest, msg} }
func errUnauthorized(msg string) error { return &apiError{http.StatusUnauthorized, msg} }
func errNotFound(msg string) error     { return &apiError{http.StatusNotFound, msg} }
func errConflict(msg string) error     { return &apiError{http.StatusConflict, msg} }

// respondError writes err to w as a JSON object `{"error": msg}`, using its
// apiError status if it carries one and 400 otherwise (an unclassified
// error is always the caller's fault at this facade layer — the
// Dataset/Expression Engines already turned anything else into a counted
// per-record exception).
func respondError(w http.ResponseWriter, err error) {
	if ae, ok := err.(*apiError); ok {
		respondwith.JSON(w, ae.status, map[string]any{"error": ae.msg})
		return
	}
	respondwith.JSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
}

// respondJSON writes v as a 200 JSON response.
func respondJSON(w http.ResponseWriter, v any) {
	respondwith.JSON(w, http.StatusOK, v)
}

// decodeJSON parses r's body into data, writing a 400 response and
// returning false on failure, following the teacher's RequireJSON shape
// (internal/api/core.go).
func decodeJSON(w http.ResponseWriter, r *http.Request, data any) bool {
	if err := json.NewDecoder(r.Body).Decode(data); err != nil {
		respondError(w, errBadRequest("request body is not valid JSON: "+err.Error()))
		return false
	}
	return true
}

// parseConfigBody reads and validates r's body as a YAML config document
// for the `_config` POST endpoints (spec §6 "validates YAML").
func parseConfigBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, errBadRequest(err.Error()))
		return nil, false
	}
	values, err := config.ParseYAML(body)
	if err != nil {
		respondError(w, errBadRequest(err.Error()))
		return nil, false
	}
	return values, true
}
