package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adityaraj-spec/fullStack/internal/apperr"
	"github.com/adityaraj-spec/fullStack/internal/config"
	"github.com/adityaraj-spec/fullStack/internal/middleware"
	"github.com/adityaraj-spec/fullStack/internal/models"
	"github.com/adityaraj-spec/fullStack/internal/services"
	"github.com/adityaraj-spec/fullStack/pkg/utils"
)

const maxUploadSize = 20 << 20 // both images plus form fields

// Handler carries the shared dependencies for the user routes.
type Handler struct {
	Store    services.UserStore
	Sessions *services.SessionManager
	Uploads  *services.CloudinaryService // nil when Cloudinary is not configured
	Cache    *services.ProfileCache
	Cfg      *config.Config
}

type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// Register handles multipart registration: fields fullName, username, email,
// password; files avatar (required) and coverImage (optional). Images are
// uploaded before the account is created, so a created account always has an
// avatar URL.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, &apperr.ValidationError{Fields: []apperr.FieldError{
			{Field: "body", Message: "expected multipart form data"},
		}})
		return
	}

	fullName := r.FormValue("fullName")
	username := r.FormValue("username")
	email := r.FormValue("email")
	password := r.FormValue("password")

	var rules utils.FieldRules
	rules.Require("fullName", fullName)
	rules.Require("username", username)
	rules.Require("email", email)
	rules.Require("password", password)
	rules.Username("username", username)
	rules.Email("email", email)
	rules.Password("password", password)

	_, avatarHeader, avatarErr := r.FormFile("avatar")
	if avatarErr != nil {
		rules.Require("avatar", "")
	}

	if err := rules.Err(); err != nil {
		writeError(w, err)
		return
	}

	if h.Uploads == nil {
		writeError(w, apperr.Internal("register", errors.New("uploads unavailable")))
		return
	}

	// Friendly pre-check; the unique indexes are the backstop if two
	// registrations race past this.
	q, _ := services.IdentifierFrom(username, email)
	if _, err := h.Store.FindByIdentifier(r.Context(), q); err == nil {
		writeError(w, apperr.ErrConflict)
		return
	} else if !errors.Is(err, apperr.ErrNotFound) {
		writeError(w, err)
		return
	}

	avatarURL, err := h.Uploads.UploadFileFromHeader(r.Context(), avatarHeader)
	if err != nil {
		writeError(w, apperr.Internal("upload avatar", err))
		return
	}

	var coverURL string
	if _, coverHeader, err := r.FormFile("coverImage"); err == nil {
		coverURL, err = h.Uploads.UploadFileFromHeader(r.Context(), coverHeader)
		if err != nil {
			writeError(w, apperr.Internal("upload cover image", err))
			return
		}
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		writeError(w, apperr.Internal("hash password", err))
		return
	}

	user, err := h.Store.Create(r.Context(), &models.User{
		FullName:   fullName,
		Username:   utils.Normalize(username),
		Email:      utils.Normalize(email),
		Avatar:     avatarURL,
		CoverImage: coverURL,
		Password:   hash,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user.Sanitized(), "User registered successfully")
}

// Login authenticates by username or email — either alone suffices — and
// issues a token pair, delivered both in the body and as HTTP-only cookies.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &apperr.ValidationError{Fields: []apperr.FieldError{
			{Field: "body", Message: "invalid JSON body"},
		}})
		return
	}

	var rules utils.FieldRules
	rules.Require("password", req.Password)
	q, ok := services.IdentifierFrom(req.Username, req.Email)
	if !ok {
		rules.Require("username or email", "")
	}
	if err := rules.Err(); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.Sessions.Authenticate(r.Context(), q, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	pair, err := h.Sessions.IssueTokens(r.Context(), user)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setAuthCookies(w, pair.AccessToken, pair.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":         user.Sanitized(),
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "User logged in successfully")
}

// Logout revokes the stored refresh token and clears both cookies. Issued
// access tokens keep working until they expire on their own.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apperr.ErrUnauthorized)
		return
	}

	if err := h.Sessions.Revoke(r.Context(), claims.Subject); err != nil {
		writeError(w, err)
		return
	}

	h.clearAuthCookies(w)
	writeJSON(w, http.StatusOK, nil, "User logged out")
}

// RefreshToken rotates the refresh token. The incoming token is read from the
// refreshToken cookie or, failing that, from the request body.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	presented := ""
	if c, err := r.Cookie(refreshCookieName); err == nil {
		presented = c.Value
	}
	if presented == "" {
		var req RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			presented = req.RefreshToken
		}
	}

	pair, user, err := h.Sessions.Refresh(r.Context(), presented)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setAuthCookies(w, pair.AccessToken, pair.RefreshToken)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":         user.Sanitized(),
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "Access token refreshed")
}

// ChangePassword re-verifies the old password before storing the new hash.
// The current session stays valid.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apperr.ErrUnauthorized)
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &apperr.ValidationError{Fields: []apperr.FieldError{
			{Field: "body", Message: "invalid JSON body"},
		}})
		return
	}

	var rules utils.FieldRules
	rules.Require("oldPassword", req.OldPassword)
	rules.Require("newPassword", req.NewPassword)
	rules.Password("newPassword", req.NewPassword)
	if err := rules.Err(); err != nil {
		writeError(w, err)
		return
	}

	if err := h.Sessions.ChangePassword(r.Context(), claims.Subject, req.OldPassword, req.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nil, "Password changed successfully")
}
