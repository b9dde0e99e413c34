package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/jmorrell/taskdeck/database"
	"github.com/jmorrell/taskdeck/services"
)

// CookieConfig describes how the session cookie is issued.
type CookieConfig struct {
	Name   string
	Secure bool
}

// AuthHandler handles authentication-related endpoints
type AuthHandler struct {
	authService *services.AuthService
	cookie      CookieConfig
}

func NewAuthHandler(authService *services.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		cookie:      cookie,
	}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a new account and logs it in immediately.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if req.Username == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Username and password cannot be empty")
		return
	}

	user, token, err := h.authService.Register(r.Context(), req.Username, req.Password)
	if errors.Is(err, database.ErrUsernameTaken) {
		writeMessage(w, http.StatusBadRequest, "username already exists try logging in")
		return
	}
	if err != nil {
		log.Printf("Register error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Error registering user")
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Registered & logged in",
		"user":    user,
	})
}

// Login verifies credentials and establishes a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request format")
		return
	}

	if req.Username == "" || req.Password == "" {
		writeMessage(w, http.StatusBadRequest, "Username and password cannot be empty")
		return
	}

	user, token, err := h.authService.Login(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, services.ErrUnknownUsername):
		writeMessage(w, http.StatusBadRequest, "username does not exist try signing up")
		return
	case errors.Is(err, services.ErrInvalidCredentials):
		writeMessage(w, http.StatusBadRequest, "Invalid password")
		return
	case err != nil:
		log.Printf("Login error: %v", err)
		writeMessage(w, http.StatusInternalServerError, "Error logging in")
		return
	}

	h.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Logged in",
		"user":    user,
	})
}

// Logout destroys the current session and clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.cookie.Name); err == nil {
		if err := h.authService.Logout(r.Context(), cookie.Value); err != nil {
			log.Printf("Logout error: %v", err)
			writeMessage(w, http.StatusInternalServerError, "Failed to destroy session")
			return
		}
	}

	h.clearSessionCookie(w)
	writeMessage(w, http.StatusOK, "Logged out")
}

// CheckSession reports whether the request carries a live session.
func (h *AuthHandler) CheckSession(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.cookie.Name)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"loggedIn": false,
			"message":  "Not logged in",
		})
		return
	}

	user, err := h.authService.CurrentUser(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, services.ErrNoSession) {
			log.Printf("Check session error: %v", err)
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"loggedIn": false,
			"message":  "Not logged in",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"loggedIn": true,
		"user":     user,
	})
}

func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cookie.Secure,
		Expires:  time.Now().Add(h.authService.SessionTTL()),
	})
}

func (h *AuthHandler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cookie.Secure,
		MaxAge:   -1,
	})
}
