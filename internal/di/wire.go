//go:build wireinject
// +build wireinject

package di

import (
	"linkup/internal/chat/handler"
	"linkup/internal/chat/repository"
	"linkup/internal/chat/service"
	"linkup/internal/common"
	"linkup/internal/config"
	"linkup/internal/dbmongo"
	"linkup/internal/dbmysql"
	"linkup/internal/notif"
	"linkup/internal/user"
	"linkup/internal/ws"

	"github.com/google/wire"
	"go.uber.org/zap"
)

func InitializeApplication(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	wire.Build(
		dbmysql.NewMySQL,
		dbmongo.NewMongoConnection,
		dbmongo.NewMediaStore,
		wire.Bind(new(service.MediaSaver), new(*dbmongo.MediaStore)),

		repository.NewChatRepository,
		service.NewChatService,
		dbmysql.NewNotificationRepository,
		user.NewUserRepository,

		ws.NewRegistry,
		wire.Bind(new(notif.Pusher), new(*ws.Registry)),
		wire.Bind(new(handler.Presence), new(*ws.Registry)),
		notif.NewService,

		common.NewJWTVerifier,
		wire.Bind(new(ws.TokenVerifier), new(common.JWTVerifier)),
		wire.Bind(new(ws.UserDirectory), new(user.UserRepository)),
		wire.Bind(new(ws.MessageService), new(service.ChatService)),
		wire.Bind(new(ws.NotificationService), new(*notif.Service)),
		ws.NewRouter,

		handler.NewChatHandler,
		notif.NewNotificationHandler,

		newApplication,
	)
	return nil, nil
}
