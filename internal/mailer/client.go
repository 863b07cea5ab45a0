package mailer

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

	"github.com/istmo-energy/portal-backend/pkg/config"
	"github.com/istmo-energy/portal-backend/pkg/logger"
)

const defaultTimeout = 10 * time.Second

// Message is one outbound transactional email.
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Sender delivers transactional email.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Client talks to the transactional mail HTTP API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	defaultFrom string
	logg        *logger.Logger
}

// NewClient builds a mail client from configuration.
func NewClient(cfg config.MailConfig, logg *logger.Logger) (*Client, error) {
	if cfg.APIBaseURL == "" {
		return nil, errors.New("mail api base url is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("mail api key is required")
	}
	if cfg.DefaultFrom == "" {
		return nil, errors.New("mail default from address is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(cfg.APIBaseURL, "/"),
		apiKey:      cfg.APIKey,
		defaultFrom: cfg.DefaultFrom,
		logg:        logg,
	}, nil
}

// Send posts the message to the /emails endpoint and returns the provider id.
func (c *Client) Send(ctx context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 {
		return "", errors.New("message requires at least one recipient")
	}
	if strings.TrimSpace(msg.Subject) == "" {
		return "", errors.New("message requires a subject")
	}
	if msg.From == "" {
		msg.From = c.defaultFrom
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mail api request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && c.logg != nil {
			c.logg.Warn(ctx, "mailer: closing response body failed")
		}
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if len(preview) > 0 {
			return "", fmt.Errorf("mail api returned %s: %s", resp.Status, strings.TrimSpace(string(preview)))
		}
		return "", fmt.Errorf("mail api returned %s", resp.Status)
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode mail api response: %w", err)
	}
	return result.ID, nil
}
