package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/risk-api/internal/auth"
	"github.com/sells-group/risk-api/internal/model"
)

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	email := auth.NormalizeEmail(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		writeErrorMessage(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < 8 {
		writeErrorMessage(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hashed, err := auth.HashPassword(req.Password, s.authCfg.BcryptCost)
	if err != nil {
		writeError(w, err)
		return
	}

	u := &model.User{
		Email:          email,
		HashedPassword: hashed,
		FullName:       strings.TrimSpace(req.FullName),
		IsActive:       true,
	}
	if err := s.store.CreateUser(r.Context(), u); err != nil {
		writeError(w, err)
		return
	}

	zap.L().Info("user registered", zap.String("user_id", u.ID))
	writeJSON(w, http.StatusCreated, u)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := s.store.GetUserByEmail(r.Context(), auth.NormalizeEmail(req.Email))
	if err != nil {
		// Same response for unknown email and wrong password.
		writeErrorMessage(w, http.StatusUnauthorized, "incorrect email or password")
		return
	}
	if !auth.CheckPassword(req.Password, u.HashedPassword) {
		writeErrorMessage(w, http.StatusUnauthorized, "incorrect email or password")
		return
	}
	if !u.IsActive {
		writeErrorMessage(w, http.StatusUnauthorized, "account is deactivated")
		return
	}

	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, currentUser(r.Context()))
}
