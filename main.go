package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/coolchillgy/pay/src/config"
	"github.com/coolchillgy/pay/src/database"
	"github.com/coolchillgy/pay/src/handlers"
	"github.com/coolchillgy/pay/src/logger"
	"github.com/coolchillgy/pay/src/model"
	"github.com/coolchillgy/pay/src/security"
	"github.com/coolchillgy/pay/src/services"
	"github.com/coolchillgy/pay/src/ws"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := make(map[string]bool)
		for _, o := range config.Cfg.AllowedOrigins {
			allowedOrigins[o] = true
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Settlement backend server starting...")

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	if config.Cfg.AdminUsername != "" && config.Cfg.AdminPassword != "" {
		if err := model.EnsureDefaultAdmin(database.DB, config.Cfg.AdminUsername, config.Cfg.AdminPassword); err != nil {
			logger.L.Error("Failed to seed default admin", "error", err)
			os.Exit(1)
		}
		logger.L.Info("Default admin ensured", "username", config.Cfg.AdminUsername)
	} else {
		logger.L.Warn("ADMIN_USERNAME/ADMIN_PASSWORD not set, skipping admin seed")
	}

	logger.L.Info("Initializing stats cache...")
	statsCache := cache.New(1*time.Minute, 5*time.Minute)

	logger.L.Info("Initializing services and handlers...")
	hub := ws.NewHub(config.Cfg.WSWriteTimeout)
	authService := security.NewAuthService(config.Cfg.JWTSecret)
	ingestService := services.NewIngestService(database.DB, hub, statsCache)

	authHandler := handlers.NewAuthHandler(authService)
	webhookHandler := handlers.NewWebhookHandler(ingestService)
	companyHandler := handlers.NewCompanyHandler(authService, hub, statsCache)
	txHandler := handlers.NewTransactionHandler()
	wsHandler := handlers.NewWSHandler(hub)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	// Public routes
	apiRouter.HandleFunc("POST /api/auth/login", authHandler.LoginHandler)
	apiRouter.HandleFunc("POST /api/webhook/{apiKey}", webhookHandler.HandleWebhook)
	apiRouter.HandleFunc("GET /api/webhook/setup-guide/{apiKey}", companyHandler.HandleSetupGuide)

	// Admin routes
	applyAdmin := func(handler http.HandlerFunc) http.HandlerFunc {
		return authHandler.AuthMiddleware(authHandler.RequireAdmin(handler))
	}
	apiRouter.HandleFunc("POST /api/admin/companies", applyAdmin(companyHandler.HandleCreateCompany))
	apiRouter.HandleFunc("GET /api/admin/dashboard", applyAdmin(companyHandler.HandleDashboard))

	// Authenticated routes (admin or owning company)
	apiRouter.HandleFunc("GET /api/companies/{companyID}/transactions", authHandler.AuthMiddleware(txHandler.HandleListCompanyTransactions))

	rootMux.Handle("/api/", apiRouter)

	// WebSocket subscription routes (long-lived, bypass the API middleware chain)
	rootMux.HandleFunc("GET /ws/admin", wsHandler.HandleAdminSocket)
	rootMux.HandleFunc("GET /ws/company/{companyID}", wsHandler.HandleCompanySocket)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"message": "Settlement backend is running",
				"status":  "running",
			})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
