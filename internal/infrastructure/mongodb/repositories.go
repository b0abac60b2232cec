package mongodb

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jhoicas/farmacia-inventario/internal/domain"
	"github.com/jhoicas/farmacia-inventario/internal/domain/entity"
	"github.com/jhoicas/farmacia-inventario/internal/domain/repository"
)

var (
	_ repository.ProductRepository       = (*ProductRepo)(nil)
	_ repository.StockMovementRepository = (*MovementRepo)(nil)
)

// ProductRepo colección de productos.
type ProductRepo struct {
	coll *mongo.Collection
}

// Create inserta un producto nuevo.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	doc, err := toProductDoc(p)
	if err != nil {
		return err
	}
	_, err = r.coll.InsertOne(ctx, doc)
	return mapError("insertar producto", err)
}

// GetByID obtiene un producto.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	var doc productDoc
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, mapError("producto "+id, err)
	}
	return doc.toEntity()
}

// GetForUpdate lee el producto dentro de la transacción. MongoDB no tiene bloqueo de lectura:
// la exclusión la da el UpdateStock condicional (conflicto de escritura o MatchedCount 0).
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

// UpdateStock escribe los campos de stock si stock_quantity sigue siendo expectedPrevious.
func (r *ProductRepo) UpdateStock(ctx context.Context, p *entity.Product, expectedPrevious int) error {
	set := bson.M{
		"stock_quantity": p.StockQuantity,
		"stock_status":   p.StockStatus,
		"updated_at":     p.UpdatedAt,
	}
	if p.LastRestocked != nil {
		set["last_restocked"] = *p.LastRestocked
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": p.ID, "stock_quantity": expectedPrevious},
		bson.M{"$set": set},
	)
	if err != nil {
		return mapError("actualizar stock", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("producto %s: %w", p.ID, domain.ErrConflict)
	}
	return nil
}

// ListAll todos los productos ordenados por nombre.
func (r *ProductRepo) ListAll(ctx context.Context) ([]*entity.Product, error) {
	cur, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, mapError("listar productos", err)
	}
	var docs []productDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decodificar productos: %w", err)
	}
	list := make([]*entity.Product, 0, len(docs))
	for _, d := range docs {
		p, err := d.toEntity()
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, nil
}

// MovementRepo colección de movimientos (solo inserción y lectura).
type MovementRepo struct {
	coll *mongo.Collection
}

// Append inserta el movimiento.
func (r *MovementRepo) Append(ctx context.Context, m *entity.StockMovement) (string, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if _, err := r.coll.InsertOne(ctx, toMovementDoc(m)); err != nil {
		return "", mapError("insertar movimiento", err)
	}
	return m.ID, nil
}

// List movimientos por fecha descendente; productID vacío = todos.
func (r *MovementRepo) List(ctx context.Context, productID string, limit int) ([]*entity.StockMovement, error) {
	filter := bson.M{}
	if productID != "" {
		filter["product_id"] = productID
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, filter, opts)
}

// ListByProductAsc kardex del producto en orden cronológico.
func (r *MovementRepo) ListByProductAsc(ctx context.Context, productID string) ([]*entity.StockMovement, error) {
	return r.find(ctx, bson.M{"product_id": productID}, options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}))
}

func (r *MovementRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*entity.StockMovement, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, mapError("listar movimientos", err)
	}
	var docs []movementDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decodificar movimientos: %w", err)
	}
	list := make([]*entity.StockMovement, 0, len(docs))
	for _, d := range docs {
		list = append(list, d.toEntity())
	}
	return list, nil
}
