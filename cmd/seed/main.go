// seed carga un catálogo de productos desde CSV y registra el stock inicial en el kardex.
//
// Uso: go run ./cmd/seed [-latin1] [ruta/productos.csv]
// Por defecto lee productos.csv del directorio actual. Columnas (con encabezado):
//
//	id,nombre,stock,stock_minimo,precio,vencimiento
//
// vencimiento es opcional (AAAA-MM-DD). Con -latin1 el archivo se decodifica como
// ISO-8859-1, el formato en que suelen exportarse las hojas de cálculo.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jhoicas/farmacia-inventario/internal/application/inventory"
	"github.com/jhoicas/farmacia-inventario/internal/infrastructure/storage"
	"github.com/jhoicas/farmacia-inventario/pkg/config"
	"github.com/jhoicas/farmacia-inventario/pkg/logger"
)

func main() {
	latin1 := flag.Bool("latin1", false, "decodificar el CSV como ISO-8859-1")
	flag.Parse()
	path := "productos.csv"
	if flag.NArg() > 0 {
		path = flag.Arg(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "seed"})

	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("path", path).Msg("abrir catálogo")
	}
	defer f.Close()

	rows, err := ReadCatalog(f, *latin1)
	if err != nil {
		log.Fatal().Err(err).Msg("leer catálogo")
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión al almacén de inventario")
	}
	defer store.Close(ctx)

	ledger := inventory.NewLedger(store.Tx, store.Movements, inventory.LedgerConfig{
		DefaultMinStock: cfg.Inventory.DefaultMinStock,
	}, log.Component("ledger"))

	created, err := Load(ctx, store.Products, ledger, rows)
	if err != nil {
		log.Fatal().Err(err).Int("created", created).Msg("carga del catálogo")
	}
	log.Info().Int("products", created).Str("path", path).Msg("catálogo cargado")
}
