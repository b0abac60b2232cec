// Package mongodb implementa los puertos de persistencia del inventario sobre MongoDB.
// Las transacciones multi-documento requieren que el servidor corra como replica set.
package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/jhoicas/farmacia-inventario/internal/application/inventory"
	"github.com/jhoicas/farmacia-inventario/internal/domain/repository"
	"github.com/jhoicas/farmacia-inventario/pkg/config"
)

const (
	productsCollection  = "products"
	movementsCollection = "stock_movements"
)

var _ inventory.TxRunner = (*Store)(nil)

// Store conexión a MongoDB con las colecciones del inventario.
type Store struct {
	client    *mongo.Client
	products  *mongo.Collection
	movements *mongo.Collection
}

// Connect abre la conexión, verifica con ping y devuelve el store.
func Connect(ctx context.Context, cfg config.MongoConfig) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("conectar a mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping a mongodb: %w", err)
	}
	db := client.Database(cfg.DBName)
	return &Store{
		client:    client,
		products:  db.Collection(productsCollection),
		movements: db.Collection(movementsCollection),
	}, nil
}

// EnsureIndexes crea los índices usados por las consultas del kardex.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.movements.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("crear índices de movimientos: %w", err)
	}
	_, err = s.products.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}})
	if err != nil {
		return fmt.Errorf("crear índices de productos: %w", err)
	}
	return nil
}

// Products repositorio de productos fuera de transacción.
func (s *Store) Products() *ProductRepo { return &ProductRepo{coll: s.products} }

// Movements repositorio de movimientos fuera de transacción.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{coll: s.movements} }

// Run ejecuta fn dentro de una transacción de sesión. Los repositorios usan el contexto de
// sesión que reciben, así que todas sus operaciones quedan dentro de la transacción.
// El driver reintenta solo los errores marcados como TransientTransactionError.
func (s *Store) Run(ctx context.Context, fn func(
	ctx context.Context,
	products repository.ProductRepository,
	movements repository.StockMovementRepository,
) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("iniciar sesión mongodb: %w", err)
	}
	defer session.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, s.Products(), s.Movements())
	}, opts)
	return mapError("transacción", err)
}

// Close cierra la conexión.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
