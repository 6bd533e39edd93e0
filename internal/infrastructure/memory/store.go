// Package memory implementa los puertos de repositorio en memoria para desarrollo local y tests.
// Cada transacción trabaja sobre una copia del estado y la publica al terminar sin error;
// las transacciones se serializan entre sí y las lecturas fuera de transacción ven la última
// versión confirmada.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/jhoicas/kardex-api/internal/application/checkout"
	"github.com/jhoicas/kardex-api/internal/application/inventory"
	"github.com/jhoicas/kardex-api/internal/domain/entity"
	"github.com/jhoicas/kardex-api/internal/domain/repository"
)

var (
	_ inventory.TxRunner = (*Store)(nil)
	_ checkout.TxRunner  = (*Store)(nil)
)

type state struct {
	products     map[string]*entity.Product
	productOrder []string
	skus         map[string]string
	stock        map[string]entity.Stock
	movements    map[string][]entity.Movement
	seq          int64
	offers       map[string]*entity.Offer
	offerOrder   []string
	orders       map[string]*entity.Order
}

func newState() *state {
	return &state{
		products:  map[string]*entity.Product{},
		skus:      map[string]string{},
		stock:     map[string]entity.Stock{},
		movements: map[string][]entity.Movement{},
		offers:    map[string]*entity.Offer{},
		orders:    map[string]*entity.Order{},
	}
}

// clone copia los índices; los valores apuntados nunca se mutan en sitio, se reemplazan.
func (s *state) clone() *state {
	return &state{
		products:     maps.Clone(s.products),
		productOrder: append([]string(nil), s.productOrder...),
		skus:         maps.Clone(s.skus),
		stock:        maps.Clone(s.stock),
		movements:    maps.Clone(s.movements),
		seq:          s.seq,
		offers:       maps.Clone(s.offers),
		offerOrder:   append([]string(nil), s.offerOrder...),
		orders:       maps.Clone(s.orders),
	}
}

// Store estado compartido de todos los repositorios en memoria.
type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	current *state
}

// NewStore crea un store vacío.
func NewStore() *Store {
	return &Store{current: newState()}
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) update(ctx context.Context, fn func(st *state) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	next := s.snapshot().clone()
	if err := fn(next); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	return nil
}

// binding ata un repositorio al estado de una transacción o al store (autocommit por operación).
type binding struct {
	store *Store
	tx    *state
}

func (b binding) read() *state {
	if b.tx != nil {
		return b.tx
	}
	return b.store.snapshot()
}

func (b binding) write(ctx context.Context, fn func(st *state) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}
	return b.store.update(ctx, fn)
}

// Products repositorio de productos fuera de transacción.
func (s *Store) Products() *ProductRepository { return &ProductRepository{binding{store: s}} }

// Stock repositorio de filas de stock fuera de transacción.
func (s *Store) Stock() *StockRepository { return &StockRepository{binding{store: s}} }

// Movements repositorio del kardex fuera de transacción.
func (s *Store) Movements() *MovementRepository { return &MovementRepository{binding{store: s}} }

// Offers repositorio de ofertas.
func (s *Store) Offers() *OfferRepository { return &OfferRepository{binding{store: s}} }

// Orders repositorio de órdenes fuera de transacción.
func (s *Store) Orders() *OrderRepository { return &OrderRepository{binding{store: s}} }

// Run ejecuta fn con repositorios atados a una transacción; publica el estado solo si fn no falla.
func (s *Store) Run(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
) error) error {
	return s.update(ctx, func(st *state) error {
		b := binding{store: s, tx: st}
		return fn(&MovementRepository{b}, &StockRepository{b}, &ProductRepository{b})
	})
}

// RunCheckout como Run, con el repositorio de órdenes en la misma transacción.
func (s *Store) RunCheckout(ctx context.Context, fn func(
	movRepo repository.MovementRepository,
	stockRepo repository.StockRepository,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
) error) error {
	return s.update(ctx, func(st *state) error {
		b := binding{store: s, tx: st}
		return fn(&MovementRepository{b}, &StockRepository{b}, &ProductRepository{b}, &OrderRepository{b})
	})
}
