//go:build wireinject
// +build wireinject

package di

import (
	"SpotCast/pkg/config"
	"SpotCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideSQLiteClient,
		ProvideSnapshotCache,
		ProvideEventPublisher,

		// Repositories
		ProvideBarStore,
		ProvideRunStore,
		ProvideArtifactStore,
		ProvideMarketFeed,

		// Services
		ProvideRateCache,
		ProvideHistoryStore,
		ProvideBench,
		ProvideRegistry,

		// Use cases and transport
		ProvideForecaster,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
