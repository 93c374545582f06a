package routes

import (
	"net/http"

	"github.com/gamemarket/rmt-marketplace/internal/chathub"
	"github.com/gamemarket/rmt-marketplace/internal/handlers"
	appmw "github.com/gamemarket/rmt-marketplace/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

func NewRoutes(h *handlers.Handler, hub *chathub.Hub) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.Register)
		r.Post("/auth/login", h.Login)
		r.With(appmw.Authenticated).Get("/auth/me", h.Me)
		r.With(appmw.Authenticated).Post("/auth/logout", h.Logout)

		r.Get("/orders", h.GetOrders)
		r.With(appmw.Authenticated).Post("/orders", h.CreateOrder)
		r.Get("/orders/{id}", h.GetOrder)
		r.With(appmw.Authenticated).Get("/orders/{id}/messages", h.GetOrderMessages)
		r.With(appmw.Authenticated).Get("/user/orders", h.GetUserOrders)

		r.With(appmw.Authenticated).Get("/tokens/balance", h.GetBalance)
		r.With(appmw.Authenticated).Post("/tokens/buy", h.BuyTokens)
		r.With(appmw.Authenticated).Post("/tokens/checkout", h.CreateCheckout)

		r.With(appmw.Authenticated).Get("/profile", h.GetProfile)
		r.With(appmw.Authenticated).Put("/profile", h.UpdateProfile)

		r.With(appmw.Authenticated).Post("/chat/messages", h.SendMessage)

		r.With(appmw.Authenticated).Post("/reviews", h.CreateReview)
		r.Get("/users/{id}/reviews", h.GetUserReviews)

		r.Post("/webhooks/stripe", h.StripeWebhook)
	})

	r.Get("/ws", hub.ServeWS)

	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return r
}
