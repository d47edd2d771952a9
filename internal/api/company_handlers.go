package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sells-group/risk-api/internal/assessment"
	"github.com/sells-group/risk-api/internal/store"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// pagination reads page/size query params into a limit/offset pair.
func pagination(r *http.Request) (pageNum, size, offset int) {
	pageNum, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if pageNum < 1 {
		pageNum = 1
	}
	size, _ = strconv.Atoi(r.URL.Query().Get("size"))
	if size < 1 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return pageNum, size, (pageNum - 1) * size
}

func (s *Server) handleListCompanies(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r.Context())
	pageNum, size, offset := pagination(r)

	filter := store.CompanyFilter{
		Search:   r.URL.Query().Get("search"),
		Industry: r.URL.Query().Get("industry"),
		Limit:    size,
		Offset:   offset,
	}

	companies, total, err := s.svc.ListCompanies(r.Context(), u.ID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(companies, pageNum, size, total))
}

func (s *Server) handleCreateCompany(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r.Context())

	var in assessment.CompanyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := s.svc.CreateCompany(r.Context(), u.ID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleGetCompany(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r.Context())

	c, err := s.svc.GetCompany(r.Context(), u.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCompany(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r.Context())

	var in assessment.CompanyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := s.svc.UpdateCompany(r.Context(), u.ID, chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCompany(w http.ResponseWriter, r *http.Request) {
	u := currentUser(r.Context())

	if err := s.svc.DeleteCompany(r.Context(), u.ID, chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
