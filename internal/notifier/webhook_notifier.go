package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"field-auth-server/config"
	"field-auth-server/internal/model"
	"field-auth-server/internal/util"
)

// WebhookNotifier отправляет setup-токен нового аккаунта внешнему сервису
// рассылки. Само письмо формирует и доставляет получатель webhook-а
type WebhookNotifier struct {
	url    string
	client *http.Client
}

func NewWebhookNotifier(cfg *config.NotifierConfig) (*WebhookNotifier, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, util.LogError("ошибка парсинга таймаута webhook", err)
	}

	return &WebhookNotifier{
		url:    cfg.URL,
		client: &http.Client{Timeout: timeout},
	}, nil
}

type provisioningNotice struct {
	Email      string     `json:"email"`
	SetupToken string     `json:"setup_token"`
	Role       model.Role `json:"role"`
}

func (n *WebhookNotifier) SendProvisioningNotice(ctx context.Context, email, setupToken string, role model.Role) error {
	payload, err := json.Marshal(provisioningNotice{
		Email:      email,
		SetupToken: setupToken,
		Role:       role,
	})
	if err != nil {
		return util.LogError("ошибка сериализации уведомления", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return util.LogError("ошибка создания запроса webhook", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := n.client.Do(request)
	if err != nil {
		return util.LogError("ошибка отправки webhook", err)
	}
	defer response.Body.Close()

	if response.StatusCode >= 300 {
		return fmt.Errorf("webhook ответил статусом %d", response.StatusCode)
	}

	return nil
}
