package api

import (
	"encoding/json"
	"net/http"

	"github.com/sells-group/risk-api/internal/assessment"
)

// assessResponse is the focused payload for the on-demand assessment
// endpoint. The full request record remains available under /requests.
type assessResponse struct {
	RequestID       string   `json:"request_id"`
	Score           *float64 `json:"score"`
	RiskLevel       string   `json:"risk_level"`
	Approved        bool     `json:"approved"`
	Recommendations []string `json:"recommendations"`
	Status          string   `json:"status"`
}

// handleAssess scores a financing request and persists it in one step.
func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, assessResponse{
		RequestID:       req.ID,
		Score:           req.RiskScore,
		RiskLevel:       req.RiskLevel,
		Approved:        req.Approved,
		Recommendations: req.Recommendations,
		Status:          string(req.Status),
	})
}
