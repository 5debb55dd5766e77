package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/bytedance/sonic"
	"github.com/openplans/planbox/internal/bootstrap"
	"github.com/openplans/planbox/internal/config"
	mq "github.com/openplans/planbox/internal/infra/queue"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/samber/do"
	"go.uber.org/zap"
)

// The audit worker tails project lifecycle messages and writes them to
// the structured log, giving operators a durable record of who changed
// what without touching the request path.
func main() {
	inj := bootstrap.BuildContainer()

	cfg := do.MustInvoke[*config.Config](inj)
	log := do.MustInvoke[*zap.Logger](inj)
	defer log.Sync()

	conn := do.MustInvoke[*amqp.Connection](inj)
	if conn == nil {
		log.Fatal("rabbitmq.url must be set for the audit worker")
	}

	consumer, err := mq.NewConsumer(conn, "planbox.project.audit", "project.*", 10, log, cfg)
	if err != nil {
		log.Fatal("consumer setup failed", zap.Error(err))
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("audit worker consuming", zap.String("exchange", cfg.RabbitMQ.Exchange))
	err = consumer.Handle(ctx, func(body []byte) error {
		var evt mq.ProjectEvent
		if err := sonic.Unmarshal(body, &evt); err != nil {
			// Malformed bodies are logged and dropped; requeueing
			// them would loop forever.
			log.Error("unparseable project event", zap.ByteString("body", body), zap.Error(err))
			return nil
		}
		log.Info("project event",
			zap.String("project_id", evt.ProjectID.String()),
			zap.String("owner_type", evt.OwnerType),
			zap.String("owner_id", evt.OwnerID.String()),
			zap.String("slug", evt.Slug),
			zap.Bool("public", evt.Public),
			zap.Time("occurred_at", evt.OccurredAt),
		)
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("consumer stopped", zap.Error(err))
	}

	_ = inj.Shutdown()
}
