package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublish_UnMensajePorMovimiento(t *testing.T) {
	w := &fakeWriter{}
	p := newMovementPublisher(w)
	at := time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return at }

	cost := decimal.RequireFromString("12.50")
	err := p.Publish(context.Background(),
		&entity.Movement{ID: "m1", ProductID: "p1", Type: entity.MovementPurchase, Quantity: 10, QuantityAfter: 10, CostPerUnit: &cost},
		&entity.Movement{ID: "m2", ProductID: "p2", Type: entity.MovementSale, Quantity: -1, QuantityBefore: 4, QuantityAfter: 3, OrderID: "o1"},
	)
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)

	assert.Equal(t, "p1", string(w.msgs[0].Key))
	assert.Equal(t, EventMovementRecorded, string(w.msgs[0].Headers[0].Value))

	var ev MovementEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, EventMovementRecorded, ev.EventType)
	assert.NotEmpty(t, ev.EventID)
	assert.True(t, ev.Timestamp.Equal(at))
	assert.Equal(t, "purchase", ev.Payload.Type)
	require.NotNil(t, ev.Payload.CostPerUnit)
	assert.Equal(t, "12.5", *ev.Payload.CostPerUnit)

	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &ev))
	assert.Equal(t, int64(-1), ev.Payload.Quantity)
	assert.Equal(t, "o1", ev.Payload.OrderID)
	assert.Nil(t, ev.Payload.CostPerUnit)
}

func TestPublish_SinMovimientosNoEscribe(t *testing.T) {
	w := &fakeWriter{err: errors.New("no debería llamarse")}
	require.NoError(t, newMovementPublisher(w).Publish(context.Background()))
}

func TestPublish_ErrorDelWriter(t *testing.T) {
	boom := errors.New("broker caído")
	p := newMovementPublisher(&fakeWriter{err: boom})

	err := p.Publish(context.Background(), &entity.Movement{ID: "m1", ProductID: "p1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestClose(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newMovementPublisher(w).Close())
	assert.True(t, w.closed)
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), &entity.Movement{}))
}
