package common

import (
	"sync"

	"github.com/kataras/golog"
	"github.com/streadway/amqp"
)

func declareExchange(ch *amqp.Channel, exchange string) error {
	return ch.ExchangeDeclare(
		exchange, // name
		"fanout", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
}

type AMQPConsumer struct {
	amqpConn  *amqp.Connection
	amqpChan  *amqp.Channel
	amqpQueue amqp.Queue

	queueName    string
	consumerName string

	amqpConsumer <-chan amqp.Delivery
	callback     func(amqp.Delivery) error
	wg           sync.WaitGroup
}

// NewAMQPConsumer binds an exclusive queue to the fanout exchange. callback is
// invoked once per delivery from a single goroutine.
func NewAMQPConsumer(url, exchange, queueName, consumerName string, callback func(amqp.Delivery) error) (*AMQPConsumer, error) {
	var err error
	consumer := AMQPConsumer{
		callback: callback,

		queueName:    queueName,
		consumerName: consumerName,
	}

	if consumer.amqpConn, err = amqp.Dial(url); err != nil {
		return nil, err
	}

	if consumer.amqpChan, err = consumer.amqpConn.Channel(); err != nil {
		_ = consumer.amqpConn.Close()
		return nil, err
	}

	if err = declareExchange(consumer.amqpChan, exchange); err != nil {
		_ = consumer.Close()
		return nil, err
	}

	if consumer.amqpQueue, err = consumer.amqpChan.QueueDeclare(
		queueName, // name
		false,     // durable
		false,     // delete when unused
		true,      // exclusive
		false,     // no-wait
		nil,       // arguments
	); err != nil {
		_ = consumer.Close()
		return nil, err
	}

	if err = consumer.amqpChan.QueueBind(
		consumer.amqpQueue.Name, // queue name
		"",                      // routing key
		exchange,                // exchange
		false,
		nil,
	); err != nil {
		_ = consumer.Close()
		return nil, err
	}

	return &consumer, nil
}

func (c *AMQPConsumer) Start() error {
	var err error

	if c.amqpConsumer, err = c.amqpChan.Consume(
		c.amqpQueue.Name, // queue
		c.consumerName,   // consumer
		true,             // auto-ack
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,              // args
	); err != nil {
		return err
	}

	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		for delivery := range c.amqpConsumer {
			if err := c.callback(delivery); err != nil {
				golog.Warnf("%s: processing a delivery failed: %s", c.consumerName, err)
			}
		}
	}()

	return nil
}

func (c *AMQPConsumer) Stop() error {
	return c.amqpChan.Cancel(c.consumerName, false)
}

func (c *AMQPConsumer) Wait() {
	c.wg.Wait()
}

func (c *AMQPConsumer) Close() error {
	var err error

	if err = c.amqpChan.Close(); err != nil {
		return err
	}

	if err = c.amqpConn.Close(); err != nil {
		return err
	}

	return nil
}

func ParseAMQPEvent(delivery *amqp.Delivery) (StreamEvent, error) {
	return DecodeEvent(delivery.Body)
}

// AMQPPublisher publishes gob-encoded stream events to a fanout exchange.
// amqp channels are not safe for concurrent publishing, so Publish serializes.
type AMQPPublisher struct {
	amqpConn *amqp.Connection
	amqpChan *amqp.Channel
	exchange string

	mu sync.Mutex
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	var err error
	publisher := &AMQPPublisher{exchange: exchange}

	if publisher.amqpConn, err = amqp.Dial(url); err != nil {
		return nil, err
	}

	if publisher.amqpChan, err = publisher.amqpConn.Channel(); err != nil {
		_ = publisher.amqpConn.Close()
		return nil, err
	}

	if err = declareExchange(publisher.amqpChan, exchange); err != nil {
		_ = publisher.Close()
		return nil, err
	}

	return publisher, nil
}

func (p *AMQPPublisher) Publish(event StreamEvent) error {
	body, err := EncodeEvent(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	return p.amqpChan.Publish(
		p.exchange,
		"",
		false,
		false,
		amqp.Publishing{
			ContentType: "application/octet-stream",
			Body:        body,
		})
}

func (p *AMQPPublisher) Close() error {
	if err := p.amqpChan.Close(); err != nil {
		return err
	}

	return p.amqpConn.Close()
}
