package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jhoicas/farmacia-inventario/internal/application/inventory"
)

var _ inventory.Notifier = (*WebhookNotifier)(nil)

// WebhookNotifier envía la alerta como POST JSON a una URL externa.
type WebhookNotifier struct {
	client *resty.Client
	url    string
}

// NewWebhookNotifier construye el cliente. token vacío = sin cabecera Authorization.
func NewWebhookNotifier(url, token string, timeout time.Duration) *WebhookNotifier {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)
	if token != "" {
		client.SetAuthToken(token)
	}
	return &WebhookNotifier{client: client, url: url}
}

// Notify hace un único intento; cualquier respuesta no 2xx es error.
func (n *WebhookNotifier) Notify(ctx context.Context, ev inventory.LowStockEvent) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(ev).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("webhook stock bajo: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook stock bajo: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}
