// Package app wires the API process together with fx.
package app

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/config"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/db"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/handlers"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/jobs"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/logging"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/mailer"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/metrics"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/middleware"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/realtime"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/repository"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/services/account"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/services/auth"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/services/catalog"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/services/contracts"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/services/messaging"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/services/passwordreset"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/services/progress"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/storage"
)

// Options tune process startup from the command line.
type Options struct {
	AutoMigrate bool
}

// Infra provides config, logging and the external connections.
var Infra = fx.Module("infra",
	fx.Provide(
		config.Load,
		newLogger,
		newDatabase,
		newRedis,
		newStore,
		newMailer,
		metrics.New,
	),
)

var Repositories = fx.Module("repositories",
	fx.Provide(
		repository.NewUserRepository,
		repository.NewServiceRepository,
		repository.NewProjectRepository,
		repository.NewChatRepository,
		repository.NewProjectUpdateRepository,
		repository.NewPasswordResetRepository,
	),
)

var Services = fx.Module("services",
	fx.Provide(
		newCredentials,
		newHub,
		newNotifier,
		account.NewService,
		catalog.NewService,
		contracts.NewService,
		messaging.NewService,
		progress.NewService,
		passwordreset.NewService,
	),
)

var HTTP = fx.Module("http",
	fx.Provide(
		newRateLimiter,
		newHandlers,
		NewServer,
		newScheduler,
	),
	fx.Invoke(registerServer, registerScheduler),
)

// New builds the API process.
func New(opts Options) *fx.App {
	return fx.New(
		fx.Supply(opts),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
		Infra,
		Repositories,
		Services,
		HTTP,
	)
}

func newLogger(lc fx.Lifecycle, cfg config.Config) (*zap.Logger, error) {
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(func() { _ = log.Sync() }))
	return log, nil
}

func newDatabase(lc fx.Lifecycle, cfg config.Config, opts Options, log *zap.Logger) (*gorm.DB, error) {
	gdb, err := db.Connect(cfg.DBDSN, log)
	if err != nil {
		return nil, err
	}
	if opts.AutoMigrate {
		if err := db.Migrate(gdb); err != nil {
			return nil, err
		}
		log.Info("schema migrated")
	}
	lc.Append(fx.StopHook(func() error {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}))
	return gdb, nil
}

func newRedis(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	rdb := realtime.NewRedis(cfg.RedisAddr, cfg.RedisPassword, log)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// notifications degrade to websocket-only when redis is down
			if err := rdb.Ping(ctx).Err(); err != nil {
				log.Warn("redis unreachable", zap.Error(err))
			}
			return nil
		},
		OnStop: func(context.Context) error { return rdb.Close() },
	})
	return rdb
}

func newStore(cfg config.Config, log *zap.Logger) (storage.Store, error) {
	if cfg.CloudinaryURL != "" {
		log.Info("uploads stored in cloudinary")
		return storage.NewCloudinary(cfg.CloudinaryURL)
	}
	log.Info("uploads stored on disk", zap.String("dir", cfg.UploadDir))
	return storage.NewLocal(cfg.UploadDir), nil
}

func newMailer(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) mailer.Mailer {
	if cfg.KafkaBroker == "" {
		return mailer.NewLogMailer(log)
	}
	m := mailer.NewKafkaMailer(mailer.KafkaConfig{
		Broker:   cfg.KafkaBroker,
		Topic:    cfg.KafkaTopic,
		Username: cfg.KafkaUsername,
		Password: cfg.KafkaPassword,
	})
	lc.Append(fx.StopHook(m.Close))
	log.Info("mail events published to kafka", zap.String("topic", cfg.KafkaTopic))
	return m
}

func newCredentials(cfg config.Config, users repository.UserRepository) *auth.Credentials {
	return auth.NewCredentials(users, cfg.JWTSecret, cfg.JWTExpiresMin)
}

func newHub(lc fx.Lifecycle, log *zap.Logger) *realtime.Hub {
	hub := realtime.NewHub(log)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go hub.Run()
			return nil
		},
		OnStop: func(context.Context) error {
			hub.Close()
			return nil
		},
	})
	return hub
}

func newNotifier(hub *realtime.Hub, rdb *redis.Client, log *zap.Logger) *realtime.Notifier {
	return realtime.NewNotifier(hub, rdb, log)
}

func newRateLimiter(cfg config.Config) *middleware.RateLimiter {
	return middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
}

type handlerDeps struct {
	fx.In

	Config    config.Config
	Log       *zap.Logger
	Hub       *realtime.Hub
	Creds     *auth.Credentials
	Accounts  *account.Service
	Catalog   *catalog.Service
	Contracts *contracts.Service
	Messaging *messaging.Service
	Progress  *progress.Service
	Resets    *passwordreset.Service
}

func newHandlers(d handlerDeps) *handlers.Set {
	authH := &handlers.AuthHandler{
		Accounts:     d.Accounts,
		Expires:      d.Config.JWTExpiresMin,
		SecureCookie: isHTTPS(d.Config.AppBaseURL),
	}
	return &handlers.Set{
		Auth: authH,
		Google: &handlers.GoogleOAuthHandler{
			Auth:            authH,
			Accounts:        d.Accounts,
			GoogleClientID:  d.Config.GoogleClientID,
			GoogleSecret:    d.Config.GoogleSecret,
			GoogleRedirect:  d.Config.GoogleRedirect,
			FrontendBaseURL: d.Config.FrontendBaseURL,
			Log:             d.Log,
		},
		Users:    handlers.NewUserHandler(d.Accounts),
		Services: handlers.NewServiceHandler(d.Catalog),
		Projects: &handlers.ProjectHandler{Contracts: d.Contracts},
		Chat: &handlers.ChatHandler{
			Messaging: d.Messaging,
			Hub:       d.Hub,
			Tokens:    d.Creds,
			Log:       d.Log,
		},
		Progress: &handlers.ProgressHandler{Progress: d.Progress},
		Resets:   &handlers.PasswordResetHandler{Resets: d.Resets},
	}
}

func newScheduler(resets *passwordreset.Service, limiter *middleware.RateLimiter, log *zap.Logger) (*jobs.Scheduler, error) {
	return jobs.New(resets, []jobs.LimiterPruner{limiter}, log)
}

func registerScheduler(lc fx.Lifecycle, s *jobs.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			s.Start()
			return nil
		},
		OnStop: s.Stop,
	})
}

func registerServer(lc fx.Lifecycle, app *fiber.App, cfg config.Config, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", ":"+cfg.AppPort)
			if err != nil {
				return err
			}
			go func() {
				if err := app.Listener(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server stopped", zap.Error(err))
				}
			}()
			log.Info("server listening", zap.String("port", cfg.AppPort))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})
}
