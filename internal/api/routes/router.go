package routes

import (
	"net/http"

	"github.com/zatekoja/Telehealthmarketplace/backend/internal/api/handlers"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/api/middleware"
	"github.com/zatekoja/Telehealthmarketplace/backend/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	dashboardHandler *handlers.DashboardHandler
	paymentHandler   *handlers.PaymentHandler
	streamHandler    *handlers.StreamHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	dashboardHandler *handlers.DashboardHandler,
	paymentHandler *handlers.PaymentHandler,
	streamHandler *handlers.StreamHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		dashboardHandler: dashboardHandler,
		paymentHandler:   paymentHandler,
		streamHandler:    streamHandler,
		allowedOrigins:   allowedOrigins,
		metrics:          metrics,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Dashboard endpoints
	r.mux.HandleFunc("GET /api/dashboards/{role}", r.dashboardHandler.GetDashboard)
	r.mux.HandleFunc("POST /api/dashboards/{role}/refresh", r.dashboardHandler.RefreshDashboard)
	r.mux.HandleFunc("POST /api/dashboards/{role}/records/{id}/actions/{action}", r.dashboardHandler.DispatchAction)
	r.mux.HandleFunc("POST /api/dashboards/{role}/modal/close", r.dashboardHandler.CloseModal)
	r.mux.HandleFunc("POST /api/dashboards/{role}/uploads", r.dashboardHandler.UploadReportPDF)
	r.mux.HandleFunc("DELETE /api/dashboards/{role}/uploads", r.dashboardHandler.RemoveReportPDF)

	// Account endpoints
	r.mux.HandleFunc("DELETE /api/account", r.dashboardHandler.DeleteAccount)

	// Payment endpoints
	r.mux.HandleFunc("POST /api/payments/checkout", r.paymentHandler.Checkout)
	r.mux.HandleFunc("POST /api/payments/pay-later", r.paymentHandler.PayLater)
	r.mux.HandleFunc("POST /api/payments/{orderId}/callback", r.paymentHandler.Callback)
	r.mux.HandleFunc("GET /api/payments/escalations", r.paymentHandler.ListEscalations)
	r.mux.HandleFunc("GET /assets/checkout.js", r.paymentHandler.CheckoutScript)

	// Notification stream
	r.mux.HandleFunc("GET /api/stream/notifications", r.streamHandler.StreamNotifications)

	// Apply middleware in reverse order (last middleware wraps first).
	// Session runs before logging and tracing so both carry the session id.
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.SessionMiddleware(handler)
	handler = middleware.ResponseOptimization(handler)
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
