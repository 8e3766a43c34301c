package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
)

type fakeProducer struct {
	sarama.SyncProducer
	sent []*sarama.ProducerMessage
	err  error
}

func (f *fakeProducer) SendMessage(msg *sarama.ProducerMessage) (int32, int64, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	f.sent = append(f.sent, msg)
	return 1, int64(len(f.sent)), nil
}

func (f *fakeProducer) Close() error { return nil }

// toConsumerMessage turns what the publisher produced into what a consumer
// would receive.
func toConsumerMessage(t *testing.T, msg *sarama.ProducerMessage) *sarama.ConsumerMessage {
	t.Helper()
	value, err := msg.Value.Encode()
	if err != nil {
		t.Fatalf("encode value: %v", err)
	}
	headers := make([]*sarama.RecordHeader, 0, len(msg.Headers))
	for i := range msg.Headers {
		headers = append(headers, &msg.Headers[i])
	}
	return &sarama.ConsumerMessage{Topic: msg.Topic, Value: value, Headers: headers}
}

func TestPublishAndDispatch(t *testing.T) {
	producer := &fakeProducer{}
	pub := NewPublisherWithProducer(producer, nil)

	stock := 0
	err := pub.PublishProductChanged(context.Background(), ProductChangedEvent{
		EventType: EventTypeProductStockUpdated,
		ProductID: 42,
		Category:  "serum",
		Stock:     &stock,
	})
	if err != nil {
		t.Fatalf("PublishProductChanged() error = %v", err)
	}
	if len(producer.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(producer.sent))
	}

	msg := producer.sent[0]
	if msg.Topic != TopicProductChanged {
		t.Errorf("topic = %q, want %q", msg.Topic, TopicProductChanged)
	}
	key, _ := msg.Key.Encode()
	if string(key) != "product_42" {
		t.Errorf("key = %q, want product_42", key)
	}

	consumer := &Consumer{handlers: make(map[string]EventHandler)}
	var got ProductChangedEvent
	consumer.RegisterHandler(EventTypeProductStockUpdated, func(ctx context.Context, e ProductChangedEvent) error {
		got = e
		return nil
	})

	consumer.Dispatch(context.Background(), toConsumerMessage(t, msg))

	if got.ProductID != 42 || got.Category != "serum" {
		t.Errorf("handled event = %+v", got)
	}
	if got.EventID == "" {
		t.Error("event id was not assigned")
	}
	if got.Stock == nil || *got.Stock != 0 {
		t.Errorf("stock = %v, want 0", got.Stock)
	}
}

func TestPublishPropagatesProducerError(t *testing.T) {
	pub := NewPublisherWithProducer(&fakeProducer{err: errors.New("broker down")}, nil)

	err := pub.PublishProductChanged(context.Background(), ProductChangedEvent{EventType: EventTypeProductDeleted, ProductID: 1})
	if err == nil {
		t.Fatal("PublishProductChanged() error = nil, want error")
	}
}

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name    string
		msg     *sarama.ConsumerMessage
		wantErr bool
	}{
		{
			name:    "missing event type",
			msg:     &sarama.ConsumerMessage{Value: []byte(`{"product_id":1}`)},
			wantErr: true,
		},
		{
			name: "bad payload",
			msg: &sarama.ConsumerMessage{
				Value:   []byte(`{`),
				Headers: []*sarama.RecordHeader{{Key: []byte("event_type"), Value: []byte(EventTypeProductCreated)}},
			},
			wantErr: true,
		},
		{
			name: "valid",
			msg: &sarama.ConsumerMessage{
				Value:   []byte(`{"product_id":7,"event_type":"product.created"}`),
				Headers: []*sarama.RecordHeader{{Key: []byte("event_type"), Value: []byte(EventTypeProductCreated)}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eventType, event, err := decodeMessage(tt.msg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (eventType != EventTypeProductCreated || event.ProductID != 7) {
				t.Errorf("decoded %q %+v", eventType, event)
			}
		})
	}
}

func TestDispatchWithoutHandlerIsIgnored(t *testing.T) {
	consumer := &Consumer{handlers: make(map[string]EventHandler)}
	consumer.Dispatch(context.Background(), &sarama.ConsumerMessage{
		Value:   []byte(`{"product_id":7}`),
		Headers: []*sarama.RecordHeader{{Key: []byte("event_type"), Value: []byte(EventTypeProductCreated)}},
	})
}
