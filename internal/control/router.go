package control

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	custommiddleware "github.com/jgaa-thai/restaurant-client/internal/middleware"
)

// SetupRouter настраивает маршруты локальной поверхности управления.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.Logger(h.logger))

	r.Get("/healthz", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.GetState)
		r.Get("/notifications", h.GetNotifications)

		r.Route("/session", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/reset-password/{token}", h.ResetPassword)
			r.Get("/verify-email/{token}", h.VerifyEmail)

			r.Post("/{role}/login", h.Login)
			r.Post("/{role}/logout", h.Logout)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/items", h.AddItem)
			r.Post("/items/increment", h.IncrementItem)
			r.Post("/items/decrement", h.DecrementItem)
			r.Delete("/items", h.DeleteItem)
		})

		r.Post("/reservations", h.Reserve)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
