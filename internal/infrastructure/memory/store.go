// Package memory implementa los puertos de persistencia del inventario en memoria.
// Sirve para desarrollo local (STORE_DRIVER=memory) y para las pruebas de casos de uso.
//
// Las transacciones bloquean cada producto leído con GetForUpdate hasta el final de Run
// (equivalente a SELECT FOR UPDATE) y aplican sus escrituras de una vez al confirmar.
// Productos distintos usan candados distintos.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/farmacia-inventario/internal/application/inventory"
	"github.com/jhoicas/farmacia-inventario/internal/domain"
	"github.com/jhoicas/farmacia-inventario/internal/domain/entity"
	"github.com/jhoicas/farmacia-inventario/internal/domain/repository"
)

var (
	_ inventory.TxRunner                 = (*Store)(nil)
	_ repository.ProductRepository       = (*ProductRepo)(nil)
	_ repository.StockMovementRepository = (*MovementRepo)(nil)
)

// Store almacén en memoria de productos y movimientos.
type Store struct {
	mu        sync.RWMutex
	products  map[string]*entity.Product
	movements []*entity.StockMovement

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{
		products: make(map[string]*entity.Product),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Products repositorio de productos fuera de transacción (autocommit).
func (s *Store) Products() *ProductRepo { return &ProductRepo{s: s} }

// Movements repositorio de movimientos fuera de transacción (autocommit).
func (s *Store) Movements() *MovementRepo { return &MovementRepo{s: s} }

// lockFor devuelve el candado del producto. Los candados no se liberan nunca: el mapa crece
// con cada ID visto, aceptable para un almacén de desarrollo y pruebas.
func (s *Store) lockFor(id string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

// Run ejecuta fn con repositorios atados a una transacción en memoria.
// Si fn devuelve error no se aplica ninguna escritura.
func (s *Store) Run(ctx context.Context, fn func(
	ctx context.Context,
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
) error) error {
	t := &memTx{s: s, locked: make(map[string]*sync.Mutex), staged: make(map[string]*entity.Product)}
	defer t.release()

	if err := fn(ctx, &ProductRepo{s: s, tx: t}, &MovementRepo{s: s, tx: t}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.commit()
	return nil
}

type memTx struct {
	s         *Store
	locked    map[string]*sync.Mutex
	staged    map[string]*entity.Product
	movements []*entity.StockMovement
}

func (t *memTx) lock(id string) {
	if _, ok := t.locked[id]; ok {
		return
	}
	l := t.s.lockFor(id)
	l.Lock()
	t.locked[id] = l
}

func (t *memTx) release() {
	for _, l := range t.locked {
		l.Unlock()
	}
	t.locked = nil
}

func (t *memTx) commit() {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	for id, p := range t.staged {
		t.s.products[id] = p
	}
	t.s.movements = append(t.s.movements, t.movements...)
}

// ProductRepo implementación en memoria de ProductRepository.
type ProductRepo struct {
	s  *Store
	tx *memTx
}

// Create registra un producto nuevo.
func (r *ProductRepo) Create(_ context.Context, product *entity.Product) error {
	if product.ID == "" {
		return fmt.Errorf("%w: producto sin ID", domain.ErrInvalidInput)
	}
	if r.tx != nil {
		r.tx.staged[product.ID] = cloneProduct(product)
		return nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.products[product.ID]; exists {
		return fmt.Errorf("%w: producto %s ya existe", domain.ErrConflict, product.ID)
	}
	r.s.products[product.ID] = cloneProduct(product)
	return nil
}

// GetByID obtiene una copia del producto.
func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	if r.tx != nil {
		if p, ok := r.tx.staged[id]; ok {
			return cloneProduct(p), nil
		}
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.products[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneProduct(p), nil
}

// GetForUpdate bloquea el producto hasta el fin de la transacción y lo devuelve.
// Fuera de transacción equivale a GetByID.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	if r.tx != nil {
		r.tx.lock(id)
	}
	return r.GetByID(ctx, id)
}

// UpdateStock escribe los campos de stock si el stock guardado sigue siendo expectedPrevious.
func (r *ProductRepo) UpdateStock(_ context.Context, product *entity.Product, expectedPrevious int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var current *entity.Product
	if r.tx != nil {
		current = r.tx.staged[product.ID]
	}
	if current == nil {
		var ok bool
		if current, ok = r.s.products[product.ID]; !ok {
			return domain.ErrNotFound
		}
	}
	if current.StockQuantity != expectedPrevious {
		return fmt.Errorf("%w: stock de %s cambió (%d != %d)", domain.ErrConflict, product.ID, current.StockQuantity, expectedPrevious)
	}
	next := cloneProduct(current)
	next.StockQuantity = product.StockQuantity
	next.StockStatus = product.StockStatus
	next.LastRestocked = cloneTime(product.LastRestocked)
	next.UpdatedAt = product.UpdatedAt
	if r.tx != nil {
		r.tx.staged[product.ID] = next
		return nil
	}
	r.s.products[product.ID] = next
	return nil
}

// ListAll devuelve todos los productos confirmados ordenados por nombre.
func (r *ProductRepo) ListAll(_ context.Context) ([]*entity.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]*entity.Product, 0, len(r.s.products))
	for _, p := range r.s.products {
		list = append(list, cloneProduct(p))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list, nil
}

// MovementRepo implementación en memoria de StockMovementRepository.
type MovementRepo struct {
	s  *Store
	tx *memTx
}

// Append anexa un movimiento.
func (r *MovementRepo) Append(_ context.Context, movement *entity.StockMovement) (string, error) {
	if movement.ID == "" || movement.ProductID == "" {
		return "", fmt.Errorf("%w: movimiento sin ID o producto", domain.ErrInvalidInput)
	}
	m := *movement
	if r.tx != nil {
		r.tx.movements = append(r.tx.movements, &m)
		return m.ID, nil
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.movements = append(r.s.movements, &m)
	return m.ID, nil
}

// List movimientos por Timestamp descendente; productID vacío = todos.
func (r *MovementRepo) List(_ context.Context, productID string, limit int) ([]*entity.StockMovement, error) {
	list := r.snapshot(productID)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Timestamp.After(list[j].Timestamp) })
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

// ListByProductAsc movimientos del producto en orden cronológico.
func (r *MovementRepo) ListByProductAsc(_ context.Context, productID string) ([]*entity.StockMovement, error) {
	list := r.snapshot(productID)
	sort.SliceStable(list, func(i, j int) bool { return list[i].Timestamp.Before(list[j].Timestamp) })
	return list, nil
}

func (r *MovementRepo) snapshot(productID string) []*entity.StockMovement {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	list := make([]*entity.StockMovement, 0, len(r.s.movements))
	for _, m := range r.s.movements {
		if productID != "" && m.ProductID != productID {
			continue
		}
		c := *m
		list = append(list, &c)
	}
	return list
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneProduct(p *entity.Product) *entity.Product {
	c := *p
	c.ExpiryDate = cloneTime(p.ExpiryDate)
	c.LastRestocked = cloneTime(p.LastRestocked)
	return &c
}
