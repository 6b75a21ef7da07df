package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Veraticus/sheetbooks/internal/backup"
	"github.com/Veraticus/sheetbooks/internal/common"
)

// Response is the envelope of every successful reply.
type Response[T any] struct {
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Success bool   `json:"success"`
}

// ErrorResponse is the body of every failed reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Written *int   `json:"written,omitempty"`
	Total   *int   `json:"total,omitempty"`
}

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

func writeData[T any](w http.ResponseWriter, status int, data T, message string) {
	_ = writeJSON(w, status, Response[T]{Success: true, Data: data, Message: message})
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	_ = writeJSON(w, status, ErrorResponse{Error: message})
}

// writeError maps the error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	var partial *common.PartialWriteError
	if errors.As(err, &partial) {
		_ = writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:   err.Error(),
			Written: &partial.Written,
			Total:   &partial.Total,
		})
		return
	}

	var userErr *common.UserError
	switch {
	case errors.Is(err, common.ErrDuplicateEntry):
		writeJSONError(w, http.StatusConflict, err.Error())
	case errors.As(err, &userErr):
		writeJSONError(w, http.StatusBadRequest, userErr.UserMessage)
	case errors.Is(err, common.ErrNotFound), errors.Is(err, common.ErrResolution), errors.Is(err, backup.ErrNoBackup):
		writeJSONError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrInvalidConfig):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrConnection):
		writeJSONError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

// readJSON decodes a size-limited body, rejecting unknown fields. Numbers in
// free-form cell values stay json.Number so large integers keep every digit.
func readJSON(w http.ResponseWriter, r *http.Request, data any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	dec.UseNumber()
	if err := dec.Decode(data); err != nil {
		return common.NewUserError("invalid request body", err)
	}
	return nil
}
