package app

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/fx"

	"github.com/hephylab/tableService/internal/adapters/handlers"
	"github.com/hephylab/tableService/internal/adapters/remote/legacy"
	"github.com/hephylab/tableService/internal/adapters/remote/scpi"
	"github.com/hephylab/tableService/internal/adapters/repositories/sqlite"
	"github.com/hephylab/tableService/internal/config"
	"github.com/hephylab/tableService/internal/interfaces"
	"github.com/hephylab/tableService/internal/middleware/logging"
	"github.com/hephylab/tableService/internal/services/kafka"
	"github.com/hephylab/tableService/internal/services/table_service"
	"github.com/hephylab/tableService/internal/services/telemetry"
	"github.com/hephylab/tableService/internal/usecases"
)

// New assembles the fx application.
func New() *fx.App {
	return fx.New(
		ConfigModule,
		LoggingModule,
		RepositoryModule,
		ProducerModule,
		ServiceModule,
		UsecaseModule,
		HttpServerModule,
		fx.Invoke(InvokeTelemetry),
		fx.Invoke(InvokeLegacyServer),
		fx.Invoke(InvokeSCPIServer),
	)
}

var ConfigModule = fx.Module("config_module",
	fx.Provide(config.LoadConfiguration),
)

func ProvideLogger(cfg *config.AppConfig) *logging.Logger {
	loggerCfg := &logging.Config{
		Enabled:    cfg.Logging.Enable,
		Level:      cfg.Logging.Level,
		LogsDir:    cfg.Logging.LogsDir,
		SavingDays: uint(cfg.Logging.SavingDays),
	}
	return logging.NewLogger(loggerCfg, "TableServiceApp")
}

var LoggingModule = fx.Module("logging_module",
	fx.Provide(ProvideLogger),
)

var RepositoryModule = fx.Module("repository_module",
	fx.Provide(sqlite.NewRepository),
)

var ProducerModule = fx.Module("producer_module",
	fx.Provide(kafka.NewKafkaProducer),
)

var ServiceModule = fx.Module("service_module",
	fx.Provide(ProvideTableController),
)

var UsecaseModule = fx.Module("usecases_module",
	fx.Provide(usecases.NewUsecases),
)

var HttpServerModule = fx.Module("http_server_module",
	fx.Provide(
		handlers.NewHandler,
		handlers.ProvideRouter,
	),
	fx.Invoke(InvokeHttpServer),
)

// ProvideTableController starts the controller worker and ties its
// shutdown to the application lifecycle.
func ProvideTableController(lc fx.Lifecycle, cfg *config.AppConfig, logger *logging.Logger) interfaces.TableController {
	controller := table_service.NewController(cfg, logger)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping table controller...")
			controller.Shutdown()
			return nil
		},
	})
	return controller
}

// InvokeTelemetry mirrors controller events onto Kafka when enabled.
func InvokeTelemetry(cfg *config.AppConfig, table interfaces.TableController, producer interfaces.KafkaService, logger *logging.Logger) {
	if !cfg.Kafka.Enabled {
		logger.Info("Kafka telemetry disabled")
		return
	}
	telemetry.NewPublisher(producer, logger).Subscribe(table)
}

// InvokeLegacyServer starts the legacy protocol TCP server.
func InvokeLegacyServer(lc fx.Lifecycle, cfg *config.AppConfig, table interfaces.TableController, logger *logging.Logger) {
	if !cfg.Legacy.Enabled {
		logger.Info("Legacy server disabled")
		return
	}
	server := legacy.NewServer(cfg, table, logger)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return server.Start()
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping legacy server...")
			server.Stop()
			return nil
		},
	})
}

// InvokeSCPIServer starts the SCPI protocol TCP server.
func InvokeSCPIServer(lc fx.Lifecycle, cfg *config.AppConfig, table interfaces.TableController, logger *logging.Logger) {
	if !cfg.SCPI.Enabled {
		logger.Info("SCPI server disabled")
		return
	}
	server := scpi.NewServer(cfg, table, logger)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return server.Start()
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping SCPI server...")
			server.Stop()
			return nil
		},
	})
}

// InvokeHttpServer starts the HTTP API server.
func InvokeHttpServer(lc fx.Lifecycle, cfg *config.AppConfig, h http.Handler, logger *logging.Logger) {
	serverAddr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("HTTP Server is starting", "address", serverAddr)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("Failed to start server", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}
