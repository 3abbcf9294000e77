package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	stderrors "estate-admin/internal/common/errors"
	"estate-admin/internal/common/logger"
	"estate-admin/internal/models"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as {"error","code"}. Internal failures are logged
// in full and reported without details.
func writeError(w http.ResponseWriter, r *http.Request, fallback logger.Logger, err error) {
	stdErr := stderrors.Normalize(err)
	status := stderrors.HTTPStatus(stdErr.Code)

	body := errorBody{Error: stdErr.Message, Code: string(stdErr.Code)}
	if status < http.StatusInternalServerError {
		body.Details = stdErr.Details
	}

	log := logger.FromContext(r.Context(), fallback)
	fields := map[string]interface{}{
		"code":    string(stdErr.Code),
		"details": stdErr.Details,
	}
	if status >= http.StatusInternalServerError {
		log.Error(stdErr.Message, fields)
	} else {
		log.Info(stdErr.Message, fields)
	}

	writeJSON(w, status, body)
}

// decodeJSON reads a single JSON object into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return stderrors.NewValidationError("request body is required")
		}
		return stderrors.NewValidationError(fmt.Sprintf("malformed JSON body: %s", err.Error()))
	}
	if dec.More() {
		return stderrors.NewValidationError("request body must contain a single JSON object")
	}
	return nil
}

// pageFromQuery reads limit and offset. Missing values take the defaults.
func pageFromQuery(r *http.Request) (models.Page, error) {
	var page models.Page
	q := r.URL.Query()
	for _, p := range []struct {
		key string
		dst *int
	}{
		{"limit", &page.Limit},
		{"offset", &page.Offset},
	} {
		raw := q.Get(p.key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return models.Page{}, stderrors.NewValidationError(fmt.Sprintf("%s must be a non-negative integer", p.key))
		}
		*p.dst = n
	}
	return page.Normalize(), nil
}

// listBody is the envelope of every collection response.
func listBody(key string, items interface{}, page models.Page) map[string]interface{} {
	return map[string]interface{}{
		key:      items,
		"limit":  page.Limit,
		"offset": page.Offset,
	}
}
