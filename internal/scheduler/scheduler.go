// Package scheduler programa el barrido periódico de alertas de stock bajo.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/jhoicas/farmacia-inventario/internal/application/dto"
	"github.com/jhoicas/farmacia-inventario/internal/application/inventory"
)

// ReplenishmentSource productos en o por debajo del umbral (lo cumple *inventory.QueryService).
type ReplenishmentSource interface {
	ListReplenishment(ctx context.Context) ([]dto.ReplenishmentSuggestionDTO, error)
}

// Scheduler reenvía según una expresión cron las alertas de los productos bajo umbral.
type Scheduler struct {
	cron     *cron.Cron
	source   ReplenishmentSource
	notifier inventory.Notifier
	expr     string
	timeout  time.Duration
	log      zerolog.Logger
}

// New crea el scheduler. expr usa el formato cron estándar de 5 campos.
func New(expr string, source ReplenishmentSource, notifier inventory.Notifier, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		source:   source,
		notifier: notifier,
		expr:     expr,
		timeout:  2 * time.Minute,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
}

// Start registra el barrido y arranca el cron.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.expr, s.run); err != nil {
		return fmt.Errorf("programar barrido de stock bajo %q: %w", s.expr, err)
	}
	s.log.Info().Str("cron", s.expr).Msg("scheduler iniciado")
	s.cron.Start()
	return nil
}

// Stop detiene el cron y espera a que termine el barrido en curso.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info().Msg("scheduler detenido")
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.Sweep(ctx); err != nil {
		s.log.Error().Err(err).Msg("falló el barrido de stock bajo")
	}
}

// Sweep avisa una vez por cada producto bajo umbral y devuelve cuántos avisos se enviaron.
// Las fallas del notificador se registran y no detienen el barrido.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	list, err := s.source.ListReplenishment(ctx)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, item := range list {
		ev := inventory.LowStockEvent{
			ProductID:     item.ProductID,
			ProductName:   item.ProductName,
			CurrentStock:  item.CurrentStock,
			MinStockLevel: item.MinStockLevel,
		}
		if err := s.notifier.Notify(ctx, ev); err != nil {
			s.log.Error().Err(err).Str("product_id", item.ProductID).Msg("falló la notificación de stock bajo")
			continue
		}
		sent++
	}
	s.log.Info().Int("products", len(list)).Int("sent", sent).Msg("barrido de stock bajo terminado")
	return sent, nil
}
