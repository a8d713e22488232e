package handler

import (
	"context"
	"sync"

	"github.com/Astemirdum/library-lending/lending/internal/errs"
	"github.com/Astemirdum/library-lending/lending/internal/model"
	"github.com/Astemirdum/library-lending/pkg/kafka"
	"github.com/IBM/sarama"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type importBook func(ctx context.Context, imp kafka.CatalogImport) (model.Book, error)

// Consumer adds books announced on the catalog import topic.
type Consumer struct {
	importHandler importBook
	log           *zap.Logger
	ready         chan bool
	once          sync.Once
}

func NewConsumer(importHandler importBook, log *zap.Logger) *Consumer {
	return &Consumer{
		importHandler: importHandler,
		log:           log.Named("consumer"),
		ready:         make(chan bool),
	}
}

// Ready is closed once the first session has been set up.
func (consumer *Consumer) Ready() <-chan bool {
	return consumer.ready
}

func (consumer *Consumer) Setup(sarama.ConsumerGroupSession) error {
	consumer.once.Do(func() { close(consumer.ready) })
	return nil
}

// Cleanup is run at the end of a session, once all ConsumeClaim goroutines have exited.
func (consumer *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (consumer *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				consumer.log.Warn("message channel was closed")
				return nil
			}
			if consumer.handle(session.Context(), message) {
				session.MarkMessage(message, "")
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// handle reports whether the message is done with. Malformed and rejected
// imports are skipped; any other failure leaves the offset for redelivery.
func (consumer *Consumer) handle(ctx context.Context, message *sarama.ConsumerMessage) bool {
	var imp kafka.CatalogImport
	if err := kafka.Unmarshal(message.Value, &imp); err != nil {
		consumer.log.Error("unmarshal catalog import", zap.Error(err), zap.Int64("offset", message.Offset))
		return true
	}
	book, err := consumer.importHandler(ctx, imp)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidArgument) || errors.Is(err, errs.ErrNotFound) {
			consumer.log.Warn("import book rejected", zap.Error(err), zap.String("title", imp.Title))
			return true
		}
		consumer.log.Error("import book", zap.Error(err),
			zap.String("title", imp.Title), zap.Int64("offset", message.Offset))
		return false
	}
	consumer.log.Debug("book imported",
		zap.Int64("book_id", book.ID),
		zap.String("topic", message.Topic),
		zap.Time("timestamp", message.Timestamp))
	return true
}
