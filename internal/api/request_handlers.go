package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/risk-api/internal/assessment"
	"github.com/sells-group/risk-api/internal/store"
)

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r.Context())
	pageNum, size, offset := pagination(r)
	q := r.URL.Query()

	filter := store.RequestFilter{
		CompanyID: q.Get("company_id"),
		Status:    q.Get("status"),
		RiskLevel: q.Get("risk_level"),
		Search:    q.Get("search"),
		Limit:     size,
		Offset:    offset,
	}
	if v := q.Get("min_amount"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "min_amount must be a number")
			return
		}
		filter.MinAmount = &f
	}
	if v := q.Get("max_amount"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "max_amount must be a number")
			return
		}
		filter.MaxAmount = &f
	}

	requests, total, err := s.svc.ListRequests(r.Context(), u.ID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(requests, pageNum, size, total))
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r.Context())

	var in assessment.CreateRequestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := s.svc.CreateRequest(r.Context(), u.ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r.Context())

	req, err := s.svc.GetRequest(r.Context(), u.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleUpdateRequest(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r.Context())

	var in assessment.UpdateRequestInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req, err := s.svc.UpdateRequest(r.Context(), u.ID, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (s *Server) handleDeleteRequest(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r.Context())

	if err := s.svc.DeleteRequest(r.Context(), u.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRequestSummary(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r.Context())

	sum, err := s.svc.Summary(r.Context(), u.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
