package main

import (
	"fmt"

	"github.com/kataras/golog"
	"github.com/xor-shift/xoshiro/common"
	"github.com/xor-shift/xoshiro/dispense"
	"github.com/xor-shift/xoshiro/producer/server"
)

func main() {
	config, err := common.LoadConfig()
	if err != nil {
		golog.Fatalf("loading configuration failed: %s", err)
	}

	golog.SetLevel(config.LogLevel)

	seed, err := config.SeedState()
	if err != nil {
		golog.Fatalf("bad RNG_SEED: %s", err)
	}

	publisher, err := common.NewAMQPPublisher(config.AMQPURL, config.Exchange)
	if err != nil {
		golog.Fatalf("connecting to amqp failed: %s", err)
	}
	defer publisher.Close()

	d := dispense.New(seed, publisher, config.MaxVerify)
	d.Start(config.Workers)
	defer d.Stop()

	app := server.NewApp(d, server.DefaultMaxValues)
	app.Logger().SetLevel(config.LogLevel)

	if err = app.Listen(fmt.Sprintf(":%d", config.ProducerPort)); err != nil {
		golog.Errorf("listening failed: %s", err)
	}
}
