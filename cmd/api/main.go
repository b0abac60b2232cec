package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/farmacia-inventario/internal/application/inventory"
	"github.com/jhoicas/farmacia-inventario/internal/infrastructure/messaging"
	"github.com/jhoicas/farmacia-inventario/internal/infrastructure/notifier"
	"github.com/jhoicas/farmacia-inventario/internal/infrastructure/observability"
	infrapdf "github.com/jhoicas/farmacia-inventario/internal/infrastructure/pdf"
	"github.com/jhoicas/farmacia-inventario/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/farmacia-inventario/internal/interfaces/http"
	"github.com/jhoicas/farmacia-inventario/internal/scheduler"
	"github.com/jhoicas/farmacia-inventario/pkg/config"
	"github.com/jhoicas/farmacia-inventario/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Otel, cfg.App.Name, cfg.App.Env)
	if err != nil {
		log.Fatal().Err(err).Msg("configurar trazas OTLP")
	}

	store, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Store.Driver).Msg("conexión al almacén de inventario")
	}
	defer store.Close(context.Background())

	ledger := inventory.NewLedger(store.Tx, store.Movements, inventory.LedgerConfig{
		DefaultMinStock: cfg.Inventory.DefaultMinStock,
		MaxRetries:      cfg.Inventory.MaxRetries,
	}, log.Component("ledger"))
	query := inventory.NewQueryService(store.Tx, store.Products, store.Movements, inventory.QueryConfig{
		DefaultMinStock:  cfg.Inventory.DefaultMinStock,
		ExpiryWindowDays: cfg.Inventory.ExpiryWindowDays,
	})

	alerts, closeAlerts := buildNotifier(cfg, log)
	defer closeAlerts()

	fulfillment := inventory.NewFulfillment(ledger, store.Products, alerts, inventory.FulfillmentConfig{
		DefaultMinStock: cfg.Inventory.DefaultMinStock,
		StrictDelivery:  cfg.Inventory.StrictDelivery,
	}, log.Component("fulfillment"))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Consumidor de transiciones de pedido (opcional). Si termina con error el proceso se
	// apaga para que el orquestador lo reinicie y el grupo reentregue el mensaje pendiente.
	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	consumerDone := make(chan struct{})
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.OrderTopic != "" {
		reader := messaging.NewOrderReader(cfg.Kafka.Brokers, cfg.Kafka.OrderTopic, cfg.Kafka.GroupID)
		consumer := messaging.NewOrderConsumer(reader, fulfillment, log.Component("kafka"))
		go func() {
			defer close(consumerDone)
			defer reader.Close()
			if err := consumer.Run(consumerCtx); err != nil {
				log.Error().Err(err).Msg("consumidor de pedidos finalizado, apagando servicio")
				select {
				case quit <- syscall.SIGTERM:
				default:
				}
			}
		}()
	} else {
		close(consumerDone)
	}

	// Barrido periódico de stock bajo (opcional)
	var sweeper *scheduler.Scheduler
	if cfg.Scheduler.StockAlertCron != "" && alerts != nil {
		sweeper = scheduler.New(cfg.Scheduler.StockAlertCron, query, alerts, log.Component("scheduler"))
		if err := sweeper.Start(); err != nil {
			log.Fatal().Err(err).Msg("iniciar scheduler")
		}
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log.Component("http")))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Farmacia Inventario API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Store.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:      ledger,
		Query:       query,
		Fulfillment: fulfillment,
		ReportPDF:   infrapdf.NewStockReportGenerator(cfg.App.Name),
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	stopConsumer()
	<-consumerDone
	if sweeper != nil {
		sweeper.Stop()
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("cierre del exportador de trazas")
	}

	log.Info().Msg("aplicación detenida")
}

// buildNotifier arma el Notifier con los drivers configurados. nil si no hay ninguno.
func buildNotifier(cfg *config.Config, log *logger.Logger) (inventory.Notifier, func()) {
	var (
		list    notifier.Multi
		closers []func()
	)
	if cfg.Notifier.Enabled(config.NotifierDriverLog) {
		list = append(list, notifier.NewLogNotifier(log.Component("low_stock")))
	}
	if cfg.Notifier.Enabled(config.NotifierDriverWebhook) {
		list = append(list, notifier.NewWebhookNotifier(cfg.Notifier.WebhookURL, cfg.Notifier.WebhookToken, 5*time.Second))
	}
	if cfg.Notifier.Enabled(config.NotifierDriverKafka) {
		kn := notifier.NewKafkaNotifier(notifier.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.LowStockTopic))
		list = append(list, kn)
		closers = append(closers, func() { _ = kn.Close() })
	}
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	switch len(list) {
	case 0:
		return nil, closeAll
	case 1:
		return list[0], closeAll
	}
	return list, closeAll
}
