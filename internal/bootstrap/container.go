package bootstrap

import (
	"time"

	"github.com/openplans/planbox/internal/config"
	"github.com/openplans/planbox/internal/infra/cache"
	"github.com/openplans/planbox/internal/infra/db"
	"github.com/openplans/planbox/internal/infra/logger"
	mq "github.com/openplans/planbox/internal/infra/queue"
	"github.com/openplans/planbox/internal/modules/handler"
	"github.com/openplans/planbox/internal/modules/repo"
	"github.com/openplans/planbox/internal/modules/service"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func BuildContainer() *do.Injector {
	inj := do.New()

	// config
	do.Provide(inj, func(i *do.Injector) (*config.Config, error) {
		return config.Load()
	})

	// logger
	do.Provide(inj, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logger.New(cfg.LogLevel)
	})

	// DB
	do.Provide(inj, func(i *do.Injector) (*gorm.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		d, err := db.New(cfg)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(d); err != nil {
			return nil, err
		}
		if cfg.Telemetry.Enabled {
			if err := db.RegisterOpenTelemetryPlugin(d); err != nil {
				log.Warn("failed to instrument gorm", zap.Error(err))
			}
		}
		return d, nil
	})

	// Redis
	do.Provide(inj, func(i *do.Injector) (*redis.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*zap.Logger](i)
		rdb, err := cache.New(cfg)
		if err != nil {
			return nil, err
		}
		if cfg.Telemetry.Enabled {
			if err := cache.RegisterOpenTelemetryPlugin(rdb); err != nil {
				log.Warn("failed to instrument redis", zap.Error(err))
			}
		}
		return rdb, nil
	})

	// project cache
	do.Provide(inj, func(i *do.Injector) (*cache.ProjectCache, error) {
		cfg := do.MustInvoke[*config.Config](i)
		rdb := do.MustInvoke[*redis.Client](i)
		return cache.NewProjectCache(rdb, time.Duration(cfg.Redis.TTLSeconds)*time.Second), nil
	})

	// RabbitMQ connection; optional, the service degrades to not
	// publishing lifecycle events when no broker is configured.
	do.Provide(inj, func(i *do.Injector) (*amqp.Connection, error) {
		cfg := do.MustInvoke[*config.Config](i)
		if cfg.RabbitMQ.URL == "" {
			return nil, nil
		}
		return mq.Connect(cfg)
	})

	// RabbitMQ Publisher
	do.Provide(inj, func(i *do.Injector) (*mq.Publisher, error) {
		cfg := do.MustInvoke[*config.Config](i)
		conn := do.MustInvoke[*amqp.Connection](i)
		log := do.MustInvoke[*zap.Logger](i)
		if conn == nil {
			log.Warn("rabbitmq not configured, project events will not be published")
			return nil, nil
		}
		return mq.NewPublisher(conn, log, cfg)
	})

	// Repo
	do.Provide(inj, func(i *do.Injector) (repo.UserRepo, error) {
		return repo.NewUserRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.OrganizationRepo, error) {
		return repo.NewOrganizationRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.ProjectRepo, error) {
		return repo.NewProjectRepo(do.MustInvoke[*gorm.DB](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (repo.EventRepo, error) {
		return repo.NewEventRepo(do.MustInvoke[*gorm.DB](i)), nil
	})

	// Service
	do.Provide(inj, func(i *do.Injector) (service.UserService, error) {
		return service.NewUserService(
			do.MustInvoke[repo.UserRepo](i),
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.OwnerService, error) {
		return service.NewOwnerService(
			do.MustInvoke[repo.UserRepo](i),
			do.MustInvoke[repo.OrganizationRepo](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.ProjectService, error) {
		return service.NewProjectService(
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[service.OwnerService](i),
			do.MustInvoke[*cache.ProjectCache](i),
			do.MustInvoke[*mq.Publisher](i),
			do.MustInvoke[*config.Config](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})
	do.Provide(inj, func(i *do.Injector) (service.EventService, error) {
		return service.NewEventService(
			do.MustInvoke[repo.EventRepo](i),
			do.MustInvoke[repo.ProjectRepo](i),
			do.MustInvoke[service.OwnerService](i),
			do.MustInvoke[*cache.ProjectCache](i),
			do.MustInvoke[*zap.Logger](i),
		), nil
	})

	// Handler
	do.Provide(inj, func(i *do.Injector) (*handler.ProjectHandler, error) {
		return handler.NewProjectHandler(do.MustInvoke[service.ProjectService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.EventHandler, error) {
		return handler.NewEventHandler(do.MustInvoke[service.EventService](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*handler.UserHandler, error) {
		return handler.NewUserHandler(), nil
	})

	return inj
}
