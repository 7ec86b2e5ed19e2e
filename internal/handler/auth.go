package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/cycleconnect/server/internal/service"
)

// AuthHandler handles account and session HTTP requests.
type AuthHandler struct {
	auth         *service.AuthService
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, cookieSecure: cookieSecure}
}

// HandleRegister processes a JSON account registration request.
// POST /api/v1/users/register
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email           string `json:"email"`
		FullName        string `json:"fullName"`
		PhoneNumber     string `json:"phoneNumber"`
		UpiID           string `json:"upiId"`
		Password        string `json:"password"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := h.auth.Register(r.Context(), service.RegisterUserInput{
		Email:           req.Email,
		FullName:        req.FullName,
		PhoneNumber:     req.PhoneNumber,
		UpiID:           req.UpiID,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		writeFailure(w, err, "register user")
		return
	}

	writeSuccess(w, http.StatusCreated, toUserDTO(user), "User registered successfully.")
}

// HandleLogin processes a JSON login request, sets the session cookie, and
// returns the token for clients preferring the Authorization header.
// POST /api/v1/users/login
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeFailure(w, err, "login user")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400, // 24 hours
	})

	userID, _ := h.auth.ValidateToken(token)
	user, err := h.auth.GetUserByID(r.Context(), userID)
	if err != nil {
		writeFailure(w, err, "get user after login")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"user":  toUserDTO(user),
		"token": token,
	}, "User logged in successfully.")
}

// HandleLogout clears the auth cookie.
// POST /api/v1/users/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})

	writeSuccess(w, http.StatusOK, nil, "User logged out successfully.")
}

// HandleMe returns the currently authenticated user.
// GET /api/v1/users/me
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "User not logged in.")
		return
	}

	writeSuccess(w, http.StatusOK, toUserDTO(user), "User fetched successfully.")
}

// HandleAvatar uploads a new avatar for the authenticated user.
// PUT /api/v1/users/avatar, multipart field "avatar".
func (h *AuthHandler) HandleAvatar(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "User not logged in.")
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Avatar file is required.")
		return
	}

	file, _, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Avatar file is required.")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		slog.Error("read avatar upload", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not read uploaded file.")
		return
	}

	url, err := h.auth.SetAvatar(r.Context(), user.ID, http.DetectContentType(data), data)
	if err != nil {
		writeFailure(w, err, "set avatar")
		return
	}

	writeSuccess(w, http.StatusOK, map[string]string{"avatar": url}, "Avatar updated successfully.")
}
