package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linkup/internal/common"
	"linkup/internal/config"
	"linkup/internal/dbmysql"
	"linkup/internal/di"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	cfg := config.Load()

	logger, err := di.NewLogger(cfg)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	app, err := di.InitializeApplication(cfg, logger)
	if err != nil {
		logger.Fatal("application init failed", zap.Error(err))
	}

	if err := dbmysql.Migrate(app.DB); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	// The realtime channel authenticates in-band, after the upgrade.
	router.Handle("/ws", app.Router)

	api := router.NewRoute().Subrouter()
	api.Use(common.AuthMiddleware)
	app.ChatHandler.RegisterRoutes(api)
	app.NotifHandler.RegisterRoutes(api)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	if err := app.Close(ctx); err != nil {
		logger.Error("mongo close error", zap.Error(err))
	}

	logger.Info("stopped")
}
