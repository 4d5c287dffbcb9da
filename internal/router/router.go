package router

import (
	"encoding/json"
	"net/http"
	"time"

	"didaur/internal/handlers/api/v1/auth"
	"didaur/internal/handlers/api/v1/leaderboard"
	"didaur/internal/handlers/api/v1/market"
	"didaur/internal/handlers/api/v1/posts"
	"didaur/internal/handlers/api/v1/profile"
	"didaur/internal/handlers/api/v1/scans"
	"didaur/internal/handlers/api/v1/uploads"

	"didaur/internal/middleware"
	"didaur/internal/response"
	"didaur/internal/services"

	"go.uber.org/zap"
)

// SetupRouter configures all HTTP routes and returns the main handler
func SetupRouter(
	serviceCollection *services.ServiceCollection,
	authMiddleware *middleware.AuthMiddleware,
	responseBuilder *response.Builder,
	logger *zap.Logger,
) http.Handler {
	mux := http.NewServeMux()

	// Health endpoint (public, unversioned)
	mux.HandleFunc("/health", healthHandler(serviceCollection))

	AddAPIv1Routes(mux, serviceCollection, authMiddleware, responseBuilder, logger)

	logger.Info("Router setup completed",
		zap.String("api_base", "/api/v1"),
	)

	return mux
}

// AddAPIv1Routes adds the versioned JSON API routes
func AddAPIv1Routes(
	mux *http.ServeMux,
	serviceCollection *services.ServiceCollection,
	authMiddleware *middleware.AuthMiddleware,
	responseBuilder *response.Builder,
	logger *zap.Logger,
) {
	authController := auth.NewAuthController(serviceCollection, logger, responseBuilder)
	profileController := profile.NewProfileController(serviceCollection, logger, responseBuilder)
	postController := posts.NewPostController(serviceCollection, logger, responseBuilder)
	marketController := market.NewMarketController(serviceCollection, logger, responseBuilder)
	scanController := scans.NewScanController(serviceCollection, logger, responseBuilder)
	leaderboardController := leaderboard.NewLeaderboardController(serviceCollection, responseBuilder)
	uploadController := uploads.NewUploadController(serviceCollection, logger, responseBuilder)

	// ===============================
	// PUBLIC AUTH ENDPOINTS (No auth required)
	// ===============================

	mux.Handle("/api/v1/auth/register", createAPIHandler(requireMethod(http.MethodPost, authController.Register)))
	mux.Handle("/api/v1/auth/login", createAPIHandler(requireMethod(http.MethodPost, authController.Login)))
	mux.Handle("/api/v1/auth/reset-password", createAPIHandler(requireMethod(http.MethodPost, authController.ResetPassword)))

	// Logout resolves its own token so a stale session can still be cleared
	mux.Handle("/api/v1/auth/logout", createAPIHandler(requireMethod(http.MethodPost, authController.Logout)))

	// ===============================
	// PROFILE ENDPOINTS (Auth required)
	// ===============================

	mux.Handle("/api/v1/profile", createAuthenticatedAPIHandler(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			profileController.GetProfile(w, r)
		case http.MethodPut:
			profileController.UpdateProfile(w, r)
		default:
			writeMethodNotAllowed(w, r, responseBuilder)
		}
	}, authMiddleware))

	mux.Handle("/api/v1/profile/theme", createAuthenticatedAPIHandler(
		requireMethod(http.MethodPut, profileController.SetTheme), authMiddleware))

	// ===============================
	// COMMUNITY FEED ENDPOINTS (Auth required)
	// ===============================

	mux.Handle("/api/v1/posts", createAuthenticatedAPIHandler(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			postController.ListPosts(w, r)
		case http.MethodPost:
			postController.CreatePost(w, r)
		default:
			writeMethodNotAllowed(w, r, responseBuilder)
		}
	}, authMiddleware))

	// Subresources: /api/v1/posts/{id}/like and /api/v1/posts/{id}/comments
	mux.Handle("/api/v1/posts/", createAuthenticatedAPIHandler(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case pathAction(r.URL.Path) == "like" && r.Method == http.MethodPost:
			postController.LikePost(w, r)
		case pathAction(r.URL.Path) == "comments" && r.Method == http.MethodGet:
			postController.GetComments(w, r)
		case pathAction(r.URL.Path) == "comments" && r.Method == http.MethodPost:
			postController.CreateComment(w, r)
		default:
			responseBuilder.WriteError(w, r, services.NewNotFoundError("resource not found"))
		}
	}, authMiddleware))

	// ===============================
	// MARKETPLACE ENDPOINTS (Auth required)
	// ===============================

	mux.Handle("/api/v1/market", createAuthenticatedAPIHandler(
		requireMethod(http.MethodGet, marketController.ListItems), authMiddleware))

	// Subresource: /api/v1/market/{id}/purchase
	mux.Handle("/api/v1/market/", createAuthenticatedAPIHandler(func(w http.ResponseWriter, r *http.Request) {
		if pathAction(r.URL.Path) == "purchase" && r.Method == http.MethodPost {
			marketController.Purchase(w, r)
			return
		}
		responseBuilder.WriteError(w, r, services.NewNotFoundError("resource not found"))
	}, authMiddleware))

	// ===============================
	// SCAN HISTORY ENDPOINTS (Auth required)
	// ===============================

	mux.Handle("/api/v1/scans", createAuthenticatedAPIHandler(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			scanController.GetHistory(w, r)
		case http.MethodPost:
			scanController.RecordScan(w, r)
		case http.MethodDelete:
			scanController.ClearHistory(w, r)
		default:
			writeMethodNotAllowed(w, r, responseBuilder)
		}
	}, authMiddleware))

	// ===============================
	// LEADERBOARD ENDPOINT (Auth required)
	// ===============================

	mux.Handle("/api/v1/leaderboard", createAuthenticatedAPIHandler(
		requireMethod(http.MethodGet, leaderboardController.GetStandings), authMiddleware))

	// ===============================
	// UPLOAD ENDPOINT (Auth required)
	// ===============================

	mux.Handle("/api/v1/uploads", createAuthenticatedAPIHandler(
		requireMethod(http.MethodPost, uploadController.UploadImage), authMiddleware))
}

// ===============================
// HANDLER HELPERS
// ===============================

// createAPIHandler wraps a handler with CORS and content negotiation headers
func createAPIHandler(handlerFunc http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		handlerFunc(w, r)
	})
}

// createAuthenticatedAPIHandler creates an API handler that requires authentication
func createAuthenticatedAPIHandler(handlerFunc http.HandlerFunc, authMiddleware *middleware.AuthMiddleware) http.Handler {
	handler := createAPIHandler(handlerFunc)
	return authMiddleware.RequireAuth()(handler)
}

// requireMethod rejects requests with any other HTTP method
func requireMethod(method string, handlerFunc http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		handlerFunc(w, r)
	}
}

// pathAction returns the trailing segment of a subresource path,
// e.g. /api/v1/posts/p1/like yields "like"
func pathAction(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return ""
}

func writeMethodNotAllowed(w http.ResponseWriter, r *http.Request, builder *response.Builder) {
	builder.WriteJSON(w, r, builder.Error(r.Context(), services.NewBusinessError("Method not allowed", "METHOD_NOT_ALLOWED")), http.StatusMethodNotAllowed)
}

// healthHandler reports database, cache and service health
func healthHandler(serviceCollection *services.ServiceCollection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		health := serviceCollection.HealthCheck(r.Context())
		health["timestamp"] = time.Now().Unix()

		statusCode := http.StatusOK
		if status, ok := health["status"].(string); ok && status != "healthy" {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(health)
	}
}
