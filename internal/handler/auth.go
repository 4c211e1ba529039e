package handler

import (
	"net/http"

	"github.com/msomdec/postfeed/internal/service"
)

// AuthHandler handles signup, login and the caller's status.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// HandleSignup creates an account.
// PUT /auth/signup
// Request:  {"email":"...","name":"...","password":"..."}
// Response: 201 {"message":"User created!","userId":"..."}
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.auth.Signup(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, "signup user", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "User created!",
		"userId":  user.ID,
	})
}

// HandleLogin verifies credentials and returns a bearer token.
// POST /auth/login
// Request:  {"email":"...","password":"..."}
// Response: {"token":"...","userId":"..."}
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeDomainError(w, r, "login user", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token":  res.Token,
		"userId": res.UserID,
	})
}

// HandleGetStatus returns the caller's status.
// GET /auth/status
func (h *AuthHandler) HandleGetStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.auth.Status(r.Context())
	if err != nil {
		writeDomainError(w, r, "get status", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": status})
}

// HandleUpdateStatus replaces the caller's status.
// PATCH /auth/status
// Request:  {"status":"..."}
func (h *AuthHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.auth.UpdateStatus(r.Context(), req.Status)
	if err != nil {
		writeDomainError(w, r, "update status", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "User updated.",
		"status":  user.Status,
	})
}
