package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/farmacia-inventario/pkg/config"
)

func TestOpen_Memoria(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: config.StoreDriverMemory}}

	s, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, s.Tx)
	assert.NotNil(t, s.Products)
	assert.NotNil(t, s.Movements)
	assert.NoError(t, s.Close(context.Background()))
}

func TestOpen_DriverDesconocido(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{Store: config.StoreConfig{Driver: "sqlite"}})
	assert.ErrorContains(t, err, "sqlite")
}
