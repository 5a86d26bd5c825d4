package fx

import (
	"go.uber.org/fx"

	"rakeback-manager/internal/api"
	"rakeback-manager/internal/config"
	"rakeback-manager/internal/database"
	"rakeback-manager/internal/logger"
	"rakeback-manager/internal/repository"
	"rakeback-manager/internal/server"
	"rakeback-manager/internal/service"
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewClubRepository),
	fx.Provide(repository.NewEntityRepository),
	fx.Provide(repository.NewWeekRepository),
	fx.Provide(repository.NewWeekDataRepository),
	// feed client
	fx.Provide(api.NewFeedClient),
	// svc
	fx.Provide(service.NewClubService),
	fx.Provide(service.NewEntityService),
	fx.Provide(service.NewWeekService),
	// server
	fx.Provide(server.NewRakebackServer),
)
