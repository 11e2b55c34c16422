// Package di assembles the application graph with wire.
package di

import (
	"context"

	"linkup/internal/chat/handler"
	"linkup/internal/config"
	"linkup/internal/dbmongo"
	"linkup/internal/notif"
	"linkup/internal/ws"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Application bundles everything the server binary needs to run.
type Application struct {
	Config       *config.Config
	DB           *gorm.DB
	Mongo        *dbmongo.MongoClient
	Registry     *ws.Registry
	Router       *ws.Router
	ChatHandler  *handler.ChatHandler
	NotifHandler *notif.NotificationHandler
	Logger       *zap.Logger
}

func newApplication(
	cfg *config.Config,
	db *gorm.DB,
	mongoClient *dbmongo.MongoClient,
	registry *ws.Registry,
	router *ws.Router,
	chatHandler *handler.ChatHandler,
	notifHandler *notif.NotificationHandler,
	logger *zap.Logger,
) *Application {
	return &Application{
		Config:       cfg,
		DB:           db,
		Mongo:        mongoClient,
		Registry:     registry,
		Router:       router,
		ChatHandler:  chatHandler,
		NotifHandler: notifHandler,
		Logger:       logger,
	}
}

// Close releases external connections.
func (a *Application) Close(ctx context.Context) error {
	return a.Mongo.Close(ctx)
}

// NewLogger builds the process logger. Production gets JSON output,
// everything else the development console encoder.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Server.Environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
