package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleLogin обслуживает POST /api/login
// Проверяет email/пароль и выдаёт токен сессии.
func (e *Env) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		e.writeError(w, http.StatusBadRequest, "bad json: "+err.Error())
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		e.writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, err := e.Users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		e.Log.Errorw("login failed", "email", req.Email, "err", err)
		e.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if u == nil {
		e.writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token := e.IssueToken(u)
	e.Log.Infow("user logged in", "email", u.Email, "role", u.Role)

	e.writeJSON(w, map[string]interface{}{
		"token": token,
		"user":  u,
	})
}
