// Package backend talks to the storefront's own backend service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/dtroode/storefront/internal/logger"
	"github.com/dtroode/storefront/internal/model"
)

// RegisterRequest is the body of the registration webhook.
type RegisterRequest struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// Registrar posts newly registered users to the backend. Calls never block
// the caller and failures are only logged.
type Registrar struct {
	url     string
	timeout time.Duration
	client  *http.Client
	logger  *logger.Logger
	wg      sync.WaitGroup
}

var _ model.Registrar = (*Registrar)(nil)

// NewRegistrar creates a webhook client posting to url. A nil client uses a default one.
func NewRegistrar(url string, timeout time.Duration, client *http.Client, logger *logger.Logger) *Registrar {
	if client == nil {
		client = &http.Client{}
	}
	return &Registrar{
		url:     url,
		timeout: timeout,
		client:  client,
		logger:  logger,
	}
}

// Register sends the webhook for identity in the background.
func (r *Registrar) Register(identity model.Identity) {
	body := RegisterRequest{
		UID:   identity.UID,
		Email: identity.Email,
		Name:  identity.Name(),
		Role:  model.RoleUser,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.post(ctx, body); err != nil {
			r.logger.Error("Backend registrar: failed to sync user",
				"uid", body.UID,
				"error", err.Error())
			return
		}

		r.logger.Info("Backend registrar: user synced",
			"uid", body.UID)
	}()
}

// Wait blocks until all pending webhook calls finished.
func (r *Registrar) Wait() {
	r.wg.Wait()
}

func (r *Registrar) post(ctx context.Context, body RegisterRequest) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call backend: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	return nil
}
