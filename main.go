package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/cors"

	"github.com/jmorrell/taskdeck/database"
	"github.com/jmorrell/taskdeck/handlers"
	"github.com/jmorrell/taskdeck/services"
)

func main() {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg := loadConfig()

	// Initialize database
	db, err := database.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	store := database.NewStore(db)
	if err := store.PurgeExpiredSessions(context.Background()); err != nil {
		log.Printf("Failed to purge expired sessions: %v", err)
	}

	// Initialize services
	authService := services.NewAuthService(store, cfg.JWTSecret, cfg.SessionTTL)

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Initialize handlers
	cookie := handlers.CookieConfig{Name: cfg.CookieName, Secure: cfg.CookieSecure}
	authHandler := handlers.NewAuthHandler(authService, cookie)
	projectHandler := handlers.NewProjectHandler(store, hub)
	taskHandler := handlers.NewTaskHandler(store, hub)
	wsHandler := handlers.NewWSHandler(hub)
	session := handlers.NewSessionMiddleware(authService, cfg.CookieName)

	// Setup router
	r := mux.NewRouter()

	// Auth routes
	r.HandleFunc("/api/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/api/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/logout", authHandler.Logout).Methods("GET")
	r.HandleFunc("/api/check-session", authHandler.CheckSession).Methods("GET")

	// Project and task routes (protected)
	api := r.PathPrefix("/api").Subrouter()
	api.Use(session.RequireAuth)
	api.HandleFunc("/projects", projectHandler.Create).Methods("POST")
	api.HandleFunc("/projects", projectHandler.List).Methods("GET")
	api.HandleFunc("/projects", projectHandler.DeleteAll).Methods("DELETE")
	api.HandleFunc("/projects/{projectId}/tasks/mark-all-done", taskHandler.MarkAllDone).Methods("PUT")
	api.HandleFunc("/projects/{projectId}/tasks", taskHandler.Create).Methods("POST")
	api.HandleFunc("/projects/{projectId}/tasks", taskHandler.DeleteAllForProject).Methods("DELETE")
	api.HandleFunc("/projects/{id}", projectHandler.Get).Methods("GET")
	api.HandleFunc("/projects/{id}", projectHandler.Update).Methods("PUT")
	api.HandleFunc("/projects/{id}", projectHandler.Delete).Methods("DELETE")
	api.HandleFunc("/tasks/{id}", taskHandler.Get).Methods("GET")
	api.HandleFunc("/tasks/{id}", taskHandler.Update).Methods("PUT")
	api.HandleFunc("/tasks/{id}", taskHandler.Delete).Methods("DELETE")

	// WebSocket route for real-time updates
	api.HandleFunc("/ws", wsHandler.HandleWebSocket)

	// Static file server for frontend
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.StaticDir)))

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      c.Handler(r),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server stopped unexpectedly: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Failed to shutdown server: %v", err)
	}

	log.Println("Server stopped")
}
