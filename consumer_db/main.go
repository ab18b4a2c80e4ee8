package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/kataras/golog"
	"github.com/streadway/amqp"
	"github.com/xor-shift/xoshiro/common"
	"github.com/xor-shift/xoshiro/store"
)

const insertTimeout = 5 * time.Second

func main() {
	config, err := common.LoadConfig()
	if err != nil {
		golog.Fatalf("loading configuration failed: %s", err)
	}

	golog.SetLevel(config.LogLevel)

	db, err := store.Open(config.MySQL())
	if err != nil {
		golog.Fatalf("opening the database failed: %s", err)
	}
	defer db.Close()

	if err = db.CreateTable(context.Background()); err != nil {
		golog.Fatalf("creating the streams table failed: %s", err)
	}

	consumer, err := common.NewAMQPConsumer(
		config.AMQPURL,
		config.Exchange,
		"stream_queue_db",
		"consumer_db_consumer",
		func(delivery amqp.Delivery) error {
			event, err := common.ParseAMQPEvent(&delivery)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
			defer cancel()

			if err = db.Insert(ctx, event); err != nil {
				return err
			}

			golog.Debugf("stored %s stream %d of session %d", event.Stream.Level, event.Stream.Index, event.Stream.Session)

			return nil
		})
	if err != nil {
		golog.Fatalf("creating the amqp consumer failed: %s", err)
	}
	defer consumer.Close()

	if err = consumer.Start(); err != nil {
		golog.Fatalf("starting the amqp consumer failed: %s", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	<-interrupt

	if err = consumer.Stop(); err != nil {
		golog.Warnf("stopping the consumer failed: %s", err)
	}

	consumer.Wait()
}
