package messaging

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/farmacia-inventario/internal/application/inventory"
	"github.com/jhoicas/farmacia-inventario/internal/domain"
)

type fakeHandler struct {
	mu    sync.Mutex
	calls []inventory.OrderTransition
	actor inventory.Actor
	err   error
}

func (h *fakeHandler) HandleTransition(ctx context.Context, t inventory.OrderTransition) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, t)
	h.actor, _ = inventory.ActorFromContext(ctx)
	return h.err
}

type fakeReader struct {
	msgs      []kafka.Message
	committed []int64
	cancel    context.CancelFunc
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		r.cancel()
		return kafka.Message{}, context.Canceled
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

const deliveredJSON = `{
	"order": {"id": "o-1", "products": [{"product_id": "p-1", "name": "Ibuprofeno", "quantity": 2, "price": "10.50"}], "delivery_status": "shipped", "status": "active"},
	"transition": "delivered",
	"previous_delivery_status": "shipped",
	"actor_id": "u-1",
	"actor_name": "Ana"
}`

func TestHandle_DespachaConActor(t *testing.T) {
	h := &fakeHandler{}
	c := NewOrderConsumer(&fakeReader{}, h, zerolog.Nop())

	err := c.Handle(context.Background(), kafka.Message{Value: []byte(deliveredJSON)})
	require.NoError(t, err)
	require.Len(t, h.calls, 1)

	got := h.calls[0]
	assert.Equal(t, "delivered", got.Transition)
	assert.Equal(t, "shipped", got.PreviousDeliveryStatus)
	assert.Equal(t, "o-1", got.Order.ID)
	require.Len(t, got.Order.Products, 1)
	assert.Equal(t, 2, got.Order.Products[0].Quantity)
	assert.Equal(t, inventory.Actor{ID: "u-1", Name: "Ana"}, h.actor)
}

func TestHandle_JSONInvalido(t *testing.T) {
	h := &fakeHandler{}
	c := NewOrderConsumer(&fakeReader{}, h, zerolog.Nop())

	err := c.Handle(context.Background(), kafka.Message{Value: []byte("{no es json")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, h.calls)
}

func TestHandle_SinActor(t *testing.T) {
	h := &fakeHandler{}
	c := NewOrderConsumer(&fakeReader{}, h, zerolog.Nop())

	err := c.Handle(context.Background(), kafka.Message{Value: []byte(`{"order":{"id":"o-1"},"transition":"delivered"}`)})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Empty(t, h.calls)
}

func TestRun_ConfirmaFinalesYReintentaTransitorios(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reader := &fakeReader{
		msgs: []kafka.Message{
			{Offset: 1, Value: []byte(deliveredJSON)},
			{Offset: 2, Value: []byte("basura")},
		},
		cancel: cancel,
	}
	h := &fakeHandler{}
	c := NewOrderConsumer(reader, h, zerolog.Nop())

	require.NoError(t, c.Run(ctx))
	assert.Equal(t, []int64{1, 2}, reader.committed)

	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	reader2 := &fakeReader{msgs: []kafka.Message{{Offset: 7, Value: []byte(deliveredJSON)}}, cancel: cancel2}
	failing := &fakeHandler{err: errors.New("base de datos caída")}
	c2 := NewOrderConsumer(reader2, failing, zerolog.Nop())
	c2.backoff = time.Millisecond

	err := c2.Run(ctx2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "offset 7")
	assert.Len(t, failing.calls, 3)
	assert.Empty(t, reader2.committed)
}

// flakyHandler falla las primeras n llamadas con err y después responde nil.
type flakyHandler struct {
	fails int
	err   error
	calls int
}

func (h *flakyHandler) HandleTransition(context.Context, inventory.OrderTransition) error {
	h.calls++
	if h.calls <= h.fails {
		return h.err
	}
	return nil
}

func TestRun_LoteCaidoSeReintenta(t *testing.T) {
	caido := &inventory.PartialFailureError{OrderID: "o-1", Attempted: 1, Failures: []inventory.ItemFailure{
		{ProductID: "p-1", Err: errors.New("conexión rechazada")},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &fakeReader{msgs: []kafka.Message{{Offset: 3, Value: []byte(deliveredJSON)}}, cancel: cancel}
	h := &flakyHandler{fails: 1, err: caido}
	c := NewOrderConsumer(reader, h, zerolog.Nop())
	c.backoff = time.Millisecond

	require.NoError(t, c.Run(ctx))
	assert.Equal(t, 2, h.calls)
	assert.Equal(t, []int64{3}, reader.committed)

	// con una línea de dominio el lote es final: se confirma sin reintentar
	parcial := &inventory.PartialFailureError{OrderID: "o-2", Attempted: 2, Failures: []inventory.ItemFailure{
		{ProductID: "p-9", Err: domain.ErrNotFound},
	}}
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	reader2 := &fakeReader{msgs: []kafka.Message{{Offset: 4, Value: []byte(deliveredJSON)}}, cancel: cancel2}
	h2 := &flakyHandler{fails: 5, err: parcial}
	c2 := NewOrderConsumer(reader2, h2, zerolog.Nop())
	c2.backoff = time.Millisecond

	require.NoError(t, c2.Run(ctx2))
	assert.Equal(t, 1, h2.calls)
	assert.Equal(t, []int64{4}, reader2.committed)
}
