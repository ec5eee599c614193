package handlers

import "github.com/go-chi/chi/v5"

// Mount registers the payment routes. The short aliases are what the payment
// page and provider notification URLs use.
func (h *Handler) Mount(r chi.Router) {
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Get("/", h.PaymentPage)
	r.Get("/api/payment", h.PaymentPage)
	r.Post("/api/payment", h.CreatePayment)
	r.Post("/api/payment/check-status", h.CheckStatus)
	r.Post("/api/check-status", h.CheckStatus)
	r.Post("/api/payment/callback", h.PaymentCallback)
	r.Post("/api/callback", h.PaymentCallback)
}
