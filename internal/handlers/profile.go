package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adityaraj-spec/fullStack/internal/apperr"
	"github.com/adityaraj-spec/fullStack/internal/middleware"
	"github.com/adityaraj-spec/fullStack/pkg/utils"
)

type UpdateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// CurrentUser returns the sanitized profile for the authenticated account,
// served from the Redis cache when possible.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apperr.ErrUnauthorized)
		return
	}

	if profile, hit := h.Cache.Get(r.Context(), claims.Subject); hit {
		writeJSON(w, http.StatusOK, profile, "Current user fetched successfully")
		return
	}

	user, err := h.Store.FindByID(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, err)
		return
	}

	sanitized := user.Sanitized()
	h.Cache.Set(r.Context(), sanitized)
	writeJSON(w, http.StatusOK, sanitized, "Current user fetched successfully")
}

// UpdateAccount updates full name and/or email.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apperr.ErrUnauthorized)
		return
	}

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &apperr.ValidationError{Fields: []apperr.FieldError{
			{Field: "body", Message: "invalid JSON body"},
		}})
		return
	}

	var rules utils.FieldRules
	if req.FullName == "" && req.Email == "" {
		rules.Require("fullName or email", "")
	}
	rules.Email("email", req.Email)
	if err := rules.Err(); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.Store.UpdateProfile(r.Context(), claims.Subject, req.FullName, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	h.Cache.Invalidate(r.Context(), claims.Subject)
	writeJSON(w, http.StatusOK, user.Sanitized(), "Account details updated successfully")
}

// UpdateAvatar replaces the avatar image from a multipart upload.
func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", "avatar", "Avatar updated successfully")
}

// UpdateCoverImage replaces the cover image from a multipart upload.
func (h *Handler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", "cover_image", "Cover image updated successfully")
}

func (h *Handler) updateImage(w http.ResponseWriter, r *http.Request, formField, storeField, message string) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, apperr.ErrUnauthorized)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, &apperr.ValidationError{Fields: []apperr.FieldError{
			{Field: "body", Message: "expected multipart form data"},
		}})
		return
	}

	_, header, err := r.FormFile(formField)
	if err != nil {
		writeError(w, &apperr.ValidationError{Fields: []apperr.FieldError{
			{Field: formField, Message: formField + " file is required"},
		}})
		return
	}

	if h.Uploads == nil {
		writeError(w, apperr.Internal("update image", errors.New("uploads unavailable")))
		return
	}

	url, err := h.Uploads.UploadFileFromHeader(r.Context(), header)
	if err != nil {
		writeError(w, apperr.Internal("upload "+formField, err))
		return
	}

	user, err := h.Store.UpdateImage(r.Context(), claims.Subject, storeField, url)
	if err != nil {
		writeError(w, err)
		return
	}

	h.Cache.Invalidate(r.Context(), claims.Subject)
	writeJSON(w, http.StatusOK, user.Sanitized(), message)
}
