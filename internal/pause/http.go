package pause

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const buttonTimeout = 2 * time.Second

// HTTPButton опрашивает кнопку устройства через GET {url}.
//
// Ответ шлюза: {"pressed": true|false}. Любая ошибка запроса
// или статус не 200 означает потерю связи.
type HTTPButton struct {
	url    string
	client *http.Client
}

// NewHTTPButton создаёт HTTPButton.
func NewHTTPButton(url string) *HTTPButton {
	return &HTTPButton{
		url:    url,
		client: &http.Client{Timeout: buttonTimeout},
	}
}

// Poll запрашивает состояние кнопки.
func (b *HTTPButton) Poll(ctx context.Context) State {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.url, nil)
	if err != nil {
		return LostConnection
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return LostConnection
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return LostConnection
	}

	var body struct {
		Pressed bool `json:"pressed"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return LostConnection
	}

	if body.Pressed {
		return Pause
	}
	return Running
}
