package api

import (
	"encoding/json"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/risk-api/internal/assessment"
	"github.com/sells-group/risk-api/internal/store"
)

// page is the list envelope shared by every collection endpoint.
type page struct {
	Items any `json:"items"`
	Page  int `json:"page"`
	Size  int `json:"size"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

func newPage(items any, pageNum, size, total int) page {
	pages := 0
	if size > 0 {
		pages = (total + size - 1) / size
	}
	return page{Items: items, Page: pageNum, Size: size, Total: total, Pages: pages}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode response", zap.Error(err))
	}
}

func writeErrorMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps service and store sentinels onto status codes. Anything
// unmapped is a 500 with the detail kept out of the response body.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case eris.Is(err, assessment.ErrValidation):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case eris.Is(err, assessment.ErrNotFound), eris.Is(err, store.ErrNotFound):
		writeErrorMessage(w, http.StatusNotFound, "not found")
	case eris.Is(err, assessment.ErrConflict), eris.Is(err, store.ErrConflict):
		writeErrorMessage(w, http.StatusConflict, "conflict with existing data")
	case eris.Is(err, store.ErrDuplicateEmail):
		writeErrorMessage(w, http.StatusConflict, "email already registered")
	default:
		zap.L().Error("request failed", zap.Error(err))
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}
