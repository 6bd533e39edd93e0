// Package kafka publica los movimientos confirmados del kardex en un tópico Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/pkg/config"
)

// EventMovementRecorded tipo de evento emitido por cada movimiento.
const EventMovementRecorded = "kardex.movement.recorded"

var (
	_ inventory.MovementPublisher = (*MovementPublisher)(nil)
	_ inventory.MovementPublisher = NopPublisher{}
)

// messageWriter subconjunto de *kafka.Writer usado por el publicador.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// MovementEvent sobre del evento publicado.
type MovementEvent struct {
	EventID   string          `json:"event_id"`
	EventType string          `json:"event_type"`
	Payload   MovementPayload `json:"payload"`
	Timestamp time.Time       `json:"timestamp"`
}

// MovementPayload datos del movimiento. Quantity lleva el signo aplicado.
type MovementPayload struct {
	ID              string    `json:"id"`
	Sequence        int64     `json:"sequence"`
	ProductID       string    `json:"product_id"`
	Type            string    `json:"type"`
	Quantity        int64     `json:"quantity"`
	QuantityBefore  int64     `json:"quantity_before"`
	QuantityAfter   int64     `json:"quantity_after"`
	ReferenceNumber string    `json:"reference_number,omitempty"`
	OrderID         string    `json:"order_id,omitempty"`
	Note            string    `json:"note,omitempty"`
	CostPerUnit     *string   `json:"cost_per_unit,omitempty"`
	CreatedBy       string    `json:"created_by,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// MovementPublisher escribe un mensaje por movimiento, con el ID de producto como clave
// para conservar el orden por producto dentro de la partición.
type MovementPublisher struct {
	writer messageWriter
	now    func() time.Time
}

// NewMovementPublisher construye el publicador sobre un kafka.Writer.
func NewMovementPublisher(cfg config.KafkaConfig) *MovementPublisher {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return newMovementPublisher(w)
}

func newMovementPublisher(w messageWriter) *MovementPublisher {
	return &MovementPublisher{writer: w, now: time.Now}
}

// Publish envía los movimientos en un solo lote.
func (p *MovementPublisher) Publish(ctx context.Context, movements ...*entity.Movement) error {
	if len(movements) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, 0, len(movements))
	for _, m := range movements {
		value, err := json.Marshal(NewMovementEvent(m, p.now()))
		if err != nil {
			return fmt.Errorf("kafka: serializar movimiento %s: %w", m.ID, err)
		}
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(m.ProductID),
			Value: value,
			Headers: []kafkago.Header{
				{Key: "event_type", Value: []byte(EventMovementRecorded)},
			},
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka: publicar %d movimientos: %w", len(msgs), err)
	}
	return nil
}

// Close libera las conexiones del writer.
func (p *MovementPublisher) Close() error {
	return p.writer.Close()
}

// NewMovementEvent arma el sobre del evento para un movimiento.
func NewMovementEvent(m *entity.Movement, at time.Time) MovementEvent {
	payload := MovementPayload{
		ID:              m.ID,
		Sequence:        m.Sequence,
		ProductID:       m.ProductID,
		Type:            string(m.Type),
		Quantity:        m.Quantity,
		QuantityBefore:  m.QuantityBefore,
		QuantityAfter:   m.QuantityAfter,
		ReferenceNumber: m.ReferenceNumber,
		OrderID:         m.OrderID,
		Note:            m.Note,
		CreatedBy:       m.CreatedBy,
		CreatedAt:       m.CreatedAt,
	}
	if m.CostPerUnit != nil {
		c := m.CostPerUnit.String()
		payload.CostPerUnit = &c
	}
	return MovementEvent{
		EventID:   uuid.NewString(),
		EventType: EventMovementRecorded,
		Payload:   payload,
		Timestamp: at.UTC(),
	}
}

// NopPublisher descarta los eventos; se usa cuando no hay brokers configurados.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, ...*entity.Movement) error { return nil }

func (NopPublisher) Close() error { return nil }
