package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMemory, cfg.Store.Driver)
	assert.Equal(t, 10, cfg.Inventory.DefaultMinStock)
	assert.Equal(t, 30, cfg.Inventory.ExpiryWindowDays)
	assert.Equal(t, 5, cfg.Inventory.MaxRetries)
	assert.False(t, cfg.Inventory.StrictDelivery)
	assert.Equal(t, []string{"log"}, cfg.Notifier.Drivers)
	assert.Equal(t, "order-status-changed", cfg.Kafka.OrderTopic)
	assert.Equal(t, "inventory-low-stock", cfg.Kafka.LowStockTopic)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestLoad_DesdeEntorno(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("INVENTORY_DEFAULT_MIN_STOCK", "25")
	t.Setenv("INVENTORY_STRICT_DELIVERY", "true")
	t.Setenv("NOTIFIER_DRIVERS", "log, Kafka")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, StoreDriverMongo, cfg.Store.Driver)
	assert.Equal(t, 25, cfg.Inventory.DefaultMinStock)
	assert.True(t, cfg.Inventory.StrictDelivery)
	assert.Equal(t, []string{"log", "kafka"}, cfg.Notifier.Drivers)
	assert.True(t, cfg.Notifier.Enabled("kafka"))
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_Invalida(t *testing.T) {
	t.Run("driver desconocido", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "sqlite")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("webhook sin URL", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "memory")
		t.Setenv("NOTIFIER_DRIVERS", "webhook")
		_, err := Load()
		assert.Error(t, err)
	})
	t.Run("kafka sin brokers", func(t *testing.T) {
		t.Setenv("STORE_DRIVER", "memory")
		t.Setenv("NOTIFIER_DRIVERS", "kafka")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestDBConfig_ConnectionString(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss:w", DBName: "farmacia", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aw@db:5432/farmacia?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
