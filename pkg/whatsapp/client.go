package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/budgetwatch/budgetwatch/internal/config"
	log "github.com/sirupsen/logrus"
)

var ErrNotConfigured = errors.New("evolution api is not configured")

type Client interface {
	// SendText delivers text to phone. The phone may contain formatting; only digits are sent.
	SendText(ctx context.Context, phone string, text string) error
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// EvolutionClient talks to an Evolution API instance.
type EvolutionClient struct {
	cfg        config.Evolution
	httpClient *http.Client
}

func NewEvolutionClient(cfg config.Evolution) *EvolutionClient {
	return &EvolutionClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// ToEvolutionNumber strips everything but digits: +55 (11) 99999-9999 becomes 5511999999999.
func ToEvolutionNumber(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (c *EvolutionClient) SendText(ctx context.Context, phone string, text string) error {
	if !c.cfg.IsConfigured() {
		return ErrNotConfigured
	}

	body, err := json.Marshal(sendTextRequest{Number: ToEvolutionNumber(phone), Text: text})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/message/sendText/%s", strings.TrimSuffix(strings.TrimSpace(c.cfg.Url), "/"), strings.TrimSpace(c.cfg.Instance))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		log.Errorf("Failed to create request: %v", err)
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", strings.TrimSpace(c.cfg.ApiKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Errorf("Failed to execute request: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := fmt.Errorf("evolution api returned status %d: %s", resp.StatusCode, string(respBody))
		log.Error(err)
		return err
	}
	return nil
}
