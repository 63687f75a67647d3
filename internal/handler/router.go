package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/estudiopopnest/wellness-booking/internal/middleware"
)

// SetupRouter wires the HTTP routes and middleware of the studio booking API.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Get("/", h.Root)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Post("/create-payment-intent", h.CreatePaymentIntent)
		r.Post("/confirm-payment", h.ConfirmPayment)
		r.Post("/confirm-booking", h.ConfirmBooking)
		r.Post("/webhook", h.Webhook)

		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", h.SaveBooking)
			r.Get("/user/{email}", h.GetUserBookings)
			r.Get("/availability/{className}/{date}/{time}", h.GetAvailability)
			r.Patch("/{id}/reschedule", h.RescheduleBooking)
			r.Get("/{id}", h.GetBooking)

			// The full listing exposes every customer's contact data, so it
			// sits behind the admin token.
			r.With(h.authMiddleware.AdminMiddleware).Get("/", h.GetBookings)
		})

		r.Route("/packages", func(r chi.Router) {
			r.Post("/purchase", h.PurchasePackage)
			r.Get("/user/{email}", h.GetUserPackages)

			r.With(h.authMiddleware.AdminMiddleware).Get("/", h.GetPackages)
		})

		r.Get("/users/email/{email}", h.GetUserByEmail)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", h.SignUp)
			r.Post("/login", h.Login)
			r.Post("/set-password", h.SetPassword)
			r.Post("/forgot-password", h.ForgotPassword)
			r.Post("/reset-password", h.ResetPassword)

			r.Post("/admin/login", h.AdminLogin)
			r.Post("/admin/forgot-password", h.AdminForgotPassword)
			r.Post("/admin/reset-password", h.AdminResetPassword)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint no encontrado")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
