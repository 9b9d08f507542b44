package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/adityaraj-spec/fullStack/internal/apperr"
)

// Envelope is the wire shape of every response, success or failure.
type Envelope struct {
	StatusCode int         `json:"statusCode"`
	Data       interface{} `json:"data"`
	Message    string      `json:"message"`
	Success    bool        `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(Envelope{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < 400,
	})
}

// writeError converts a domain error into the envelope. Internal causes are
// logged server-side; clients only ever see the generic message.
func writeError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)

	var ve *apperr.ValidationError
	if errors.As(err, &ve) {
		fields := make(map[string]string, len(ve.Fields))
		for _, f := range ve.Fields {
			fields[f.Field] = f.Message
		}
		writeJSON(w, status, map[string]interface{}{"fields": fields}, "Validation failed")
		return
	}

	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
		writeJSON(w, status, nil, "Something went wrong")
		return
	}

	writeJSON(w, status, nil, err.Error())
}

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

func authCookie(name, value string, maxAge time.Duration, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) setAuthCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	secure := h.Cfg.IsProduction()
	http.SetCookie(w, authCookie(accessCookieName, accessToken, h.Cfg.AccessTokenTTL, secure))
	http.SetCookie(w, authCookie(refreshCookieName, refreshToken, h.Cfg.RefreshTokenTTL, secure))
}

func (h *Handler) clearAuthCookies(w http.ResponseWriter) {
	secure := h.Cfg.IsProduction()
	http.SetCookie(w, authCookie(accessCookieName, "", -time.Second, secure))
	http.SetCookie(w, authCookie(refreshCookieName, "", -time.Second, secure))
}
