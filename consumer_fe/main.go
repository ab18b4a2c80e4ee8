package main

import (
	"fmt"

	"github.com/kataras/golog"
	"github.com/kataras/iris/v12"
	"github.com/streadway/amqp"
	"github.com/xor-shift/xoshiro/common"
)

const recentCount = 128

func main() {
	var err error

	var consumer *common.AMQPConsumer
	var app *iris.Application

	config, err := common.LoadConfig()
	if err != nil {
		golog.Fatalf("loading configuration failed: %s", err)
	}

	golog.SetLevel(config.LogLevel)

	recent := newRecentEvents(recentCount)

	if consumer, err = common.NewAMQPConsumer(
		config.AMQPURL,
		config.Exchange,
		"stream_queue_fe",
		"consumer_fe_consumer",
		func(delivery amqp.Delivery) error {
			event, err := common.ParseAMQPEvent(&delivery)
			if err != nil {
				return err
			}

			golog.Infof("session %d: %s stream %d @ %d: %s",
				event.Stream.Session,
				event.Stream.Level,
				event.Stream.Index,
				event.Allocated,
				event.Stream.State)

			recent.Add(event)

			return nil
		}); err != nil {
		golog.Fatal(err)
	}
	defer consumer.Close()

	if err = consumer.Start(); err != nil {
		golog.Fatal(err)
	}

	app = iris.New()
	app.Logger().SetLevel(config.LogLevel)

	app.Get("/test", func(ctx iris.Context) {
		_, _ = ctx.Text("OK")
	})

	app.Get("/streams", func(ctx iris.Context) {
		_, _ = ctx.JSON(recent.Snapshot())
	})

	if err = app.Listen(fmt.Sprintf(":%d", config.ConsumerFEPort)); err != nil {
		golog.Fatal(err)
	}
}
