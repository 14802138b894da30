package fx

import (
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"gamehub-backend/internal/config"
	"gamehub-backend/internal/database"
	"gamehub-backend/internal/logger"
	"gamehub-backend/internal/repository"
	"gamehub-backend/internal/server"
	"gamehub-backend/internal/service"
	"gamehub-backend/internal/webhook"
)

func ProvideSynchronizer(
	groups *repository.GroupRepository,
	players *repository.PlayerRepository,
	members *repository.MembershipRepository,
	forwarder *webhook.Forwarder,
	log zerolog.Logger,
) *service.Synchronizer {
	var sink service.EventSink = forwarder
	if !forwarder.Enabled() {
		sink = service.NoopSink{}
	}
	return service.NewSynchronizer(groups, players, members, sink, log)
}

func ProvideGameService(games *repository.GameRepository, log zerolog.Logger) *service.GameService {
	return service.NewGameService(games, log)
}

func ProvidePlayerService(
	games *repository.GameRepository,
	players *repository.PlayerRepository,
	sync *service.Synchronizer,
	log zerolog.Logger,
) *service.PlayerService {
	return service.NewPlayerService(games, players, sync, log)
}

func ProvideGroupService(
	games *repository.GameRepository,
	groups *repository.GroupRepository,
	members *repository.MembershipRepository,
	sync *service.Synchronizer,
	log zerolog.Logger,
) *service.GroupService {
	return service.NewGroupService(games, groups, members, sync, log)
}

func ProvidePreviewService(
	games *repository.GameRepository,
	players *repository.PlayerRepository,
	log zerolog.Logger,
) *service.PreviewService {
	return service.NewPreviewService(games, players, log)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewGameRepository),
	fx.Provide(repository.NewPlayerRepository),
	fx.Provide(repository.NewGroupRepository),
	fx.Provide(repository.NewMembershipRepository),
	// outbound events
	fx.Provide(webhook.NewForwarder),
	// svc
	fx.Provide(ProvideSynchronizer),
	fx.Provide(ProvideGameService),
	fx.Provide(ProvidePlayerService),
	fx.Provide(ProvideGroupService),
	fx.Provide(ProvidePreviewService),
	// server
	fx.Provide(server.New),
)
