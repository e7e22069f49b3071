package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/bluelink-community/vehicle-connect/internal/log"
)

// Notifier posts a JSON alert to a webhook after every control command. Notifications
// are best-effort; failures are logged and never affect the command's response.
type Notifier struct {
	URL     string
	Timeout time.Duration

	client http.Client
}

// NewNotifier returns a Notifier posting to url.
func NewNotifier(url string) *Notifier {
	return &Notifier{
		URL:     url,
		Timeout: 10 * time.Second,
	}
}

type alertPayload struct {
	Command   string `json:"command"`
	VIN       string `json:"vin"`
	Success   bool   `json:"success"`
	Detail    string `json:"detail,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Notify delivers one alert. It blocks until delivery finishes or times out, so callers
// typically invoke it from a goroutine.
func (n *Notifier) Notify(command, vin string, success bool, detail string) {
	payload := alertPayload{
		Command:   command,
		VIN:       vin,
		Success:   success,
		Detail:    detail,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	body, err := json.Marshal(&payload)
	if err != nil {
		log.Error("Error serializing alert for %s: %s", command, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.Timeout)
	defer cancel()
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(body))
	if err != nil {
		log.Error("Error constructing alert request: %s", err)
		return
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := n.client.Do(request)
	if err != nil {
		log.Warning("Alert webhook unreachable: %s", err)
		return
	}
	response.Body.Close()
	if response.StatusCode >= 400 {
		log.Warning("Alert webhook returned %s for %s", response.Status, command)
		return
	}
	log.Debug("Delivered %s alert to webhook", command)
}
