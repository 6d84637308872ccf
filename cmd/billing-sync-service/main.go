// billing-sync-service pulls queued billing sync runs from Pub/Sub and
// processes them. Deploy it alongside the API when push delivery to
// /pubsub/billing-sync is not available.
package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"cloud.google.com/go/pubsub"
	"github.com/montazreklam/jobs_backend/billingsync"
	"github.com/montazreklam/jobs_backend/config"
	"github.com/montazreklam/jobs_backend/jobcache"
	"github.com/montazreklam/jobs_backend/models"
	"github.com/montazreklam/jobs_backend/workflow"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	}

	topicName := strings.TrimSpace(os.Getenv("BILLING_SYNC_TOPIC"))
	if topicName == "" {
		topicName = "billing-sync"
	}
	subName := strings.TrimSpace(os.Getenv("BILLING_SYNC_SUBSCRIPTION"))
	if subName == "" {
		subName = topicName + "-worker"
	}

	client, err := config.GetClient(sigCtx)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "pubsub"}).Fatal("pubsub client init failed: " + err.Error())
	}
	topic, err := config.CreateTopicIfNotExists(client, topicName)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "pubsub"}).Fatal("topic setup failed: " + err.Error())
	}
	sub, err := config.CreateSubscriptionIfNotExists(client, subName, topic)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "pubsub"}).Fatal("subscription setup failed: " + err.Error())
	}

	wf := workflow.New(models.RemoteGateway{}, jobcache.NewRedisStore(), nil, nil, logger)
	svc := billingsync.NewService(wf)

	logger.WithFields(logrus.Fields{
		"topic":        topicName,
		"subscription": subName,
	}).Info("billing sync worker listening")

	err = sub.Receive(sigCtx, func(ctx context.Context, msg *pubsub.Message) {
		if err := svc.HandleSyncMessage(ctx, msg.Data); err != nil {
			config.LogError(logger, "cmd/billing-sync-service", "main", "sync run failed", string(msg.Data), err)
		}
		// Run state is persisted per attempt; redelivery would reprocess a
		// terminal run and stop, so always ack.
		msg.Ack()
	})
	if err != nil && sigCtx.Err() == nil {
		logger.WithFields(logrus.Fields{"field": "pubsub"}).Error("receive stopped: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
