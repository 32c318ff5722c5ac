package mykafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

const publishTimeout = 5 * time.Second

var ErrNoBrokers = errors.New("kafka: no brokers configured")

type Producer struct {
	writer *kafkago.Writer
}

func NewProducer(brokers []string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Balancer:               &kafkago.Hash{},
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafkago.RequireOne,
		WriteTimeout:           publishTimeout,
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: w}, nil
}

func (p *Producer) PublishEvent(ctx context.Context, topic, key string, event any) error {
	msg, err := newMessage(topic, key, event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write failed: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

func newMessage(topic, key string, event any) (kafkago.Message, error) {
	if topic == "" {
		return kafkago.Message{}, errors.New("kafka: empty topic")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}
	return kafkago.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}, nil
}
