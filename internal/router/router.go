package router

import (
	"net/http"
	"strings"

	"orda-market/internal/handler"
	"orda-market/internal/middleware"
	"orda-market/internal/repository"

	"github.com/rs/zerolog"
)

// New creates a new HTTP router with all routes and middleware configured.
func New(
	productHandler *handler.ProductHandler,
	orderHandler *handler.OrderHandler,
	users repository.UserRepository,
	logger zerolog.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Product handler function
	productRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Check if this is a request for a specific product ID
		if r.URL.Path != "/api/products" && r.URL.Path != "/api/products/" {
			productHandler.GetByID(w, r)
			return
		}
		productHandler.GetAll(w, r)
	}

	// Register product routes (both with and without trailing slash)
	mux.HandleFunc("/api/products", productRouteHandler)
	mux.HandleFunc("/api/products/", productRouteHandler)

	// Order handler function. Routes:
	//   POST  /api/orders                          submit order
	//   GET   /api/orders                          list orders
	//   GET   /api/orders/history                  list change history
	//   GET   /api/orders/{id}                     get order
	//   PATCH /api/orders/{id}                     update order
	//   PATCH /api/orders/{id}/change-status       change status
	//   GET   /api/orders/{id}/history             order change history
	orderRouteHandler := func(w http.ResponseWriter, r *http.Request) {
		collection := r.URL.Path == "/api/orders" || r.URL.Path == "/api/orders/"

		switch {
		case collection && r.Method == http.MethodPost:
			orderHandler.Create(w, r)
		case collection && r.Method == http.MethodGet:
			orderHandler.List(w, r)
		case r.URL.Path == "/api/orders/history" && r.Method == http.MethodGet:
			orderHandler.HistoryAll(w, r)
		case strings.HasSuffix(r.URL.Path, "/change-status") && r.Method == http.MethodPatch:
			orderHandler.ChangeStatus(w, r)
		case strings.HasSuffix(r.URL.Path, "/history") && r.Method == http.MethodGet:
			orderHandler.History(w, r)
		case !collection && r.Method == http.MethodGet:
			orderHandler.GetByID(w, r)
		case !collection && r.Method == http.MethodPatch:
			orderHandler.Update(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}

	// Register order routes (both with and without trailing slash)
	mux.HandleFunc("/api/orders", orderRouteHandler)
	mux.HandleFunc("/api/orders/", orderRouteHandler)

	// Apply middleware in order: Recovery -> Logging -> CORS -> Auth
	var h http.Handler = mux
	h = middleware.Auth(users, logger)(h)
	h = middleware.CORS(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Recovery(logger)(h)

	return h
}
