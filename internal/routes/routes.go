package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/adityaraj-spec/fullStack/internal/handlers"
	"github.com/adityaraj-spec/fullStack/internal/middleware"
)

func SetupRoutes(r *chi.Mux, h *handlers.Handler) {
	requireAuth := middleware.RequireAuth(h.Sessions.Codec())

	r.Route("/api/v1/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh-token", h.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", h.Logout)
			r.Post("/change-password", h.ChangePassword)
			r.Get("/current-user", h.CurrentUser)
			r.Patch("/update-account", h.UpdateAccount)
			r.Patch("/avatar", h.UpdateAvatar)
			r.Patch("/cover-image", h.UpdateCoverImage)
		})
	})
}
