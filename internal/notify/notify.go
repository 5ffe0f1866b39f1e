// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package notify delivers confirmation codes to an external notification
// service via HMAC-signed HTTP POST. When no service is configured the code
// is written to the application log instead, which keeps local development
// self-contained.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Delivery configuration constants
const (
	RequestTimeout = 30 * time.Second // HTTP request timeout
	MaxResponseLen = 10 * 1024        // Maximum response body to read (10KB)
	UserAgent      = "yamdb/1.0"      // User-Agent header value
)

// httpClient is the shared HTTP client with appropriate timeouts.
var httpClient = &http.Client{
	Timeout: RequestTimeout,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// ConfirmationMessage is the payload posted to the notification service.
type ConfirmationMessage struct {
	Email            string `json:"email"`
	Username         string `json:"username"`
	ConfirmationCode string `json:"confirmation_code"`
}

// Notifier sends confirmation codes to users.
type Notifier struct {
	url    string
	secret string
	logger *slog.Logger
}

// New creates a Notifier. An empty url disables external delivery and
// falls back to log-only mode.
func New(url, secret string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{url: url, secret: secret, logger: logger}
}

// Enabled reports whether an external notification service is configured.
func (n *Notifier) Enabled() bool {
	return n.url != ""
}

// SendConfirmationCode delivers a confirmation code asynchronously. The
// signup request never waits on, or fails because of, delivery.
func (n *Notifier) SendConfirmationCode(msg ConfirmationMessage) {
	if !n.Enabled() {
		n.logger.Info("confirmation code issued",
			"category", "auth",
			"username", msg.Username,
			"email", msg.Email,
			"code", msg.ConfirmationCode)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()

		if err := n.deliver(ctx, msg); err != nil {
			n.logger.Warn("confirmation code delivery failed",
				"category", "auth",
				"username", msg.Username,
				"error", err)
		}
	}()
}

// deliver performs the HTTP POST to the notification service.
func (n *Notifier) deliver(ctx context.Context, msg ConfirmationMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-Notify-Signature", GenerateSignature(payload, n.secret))

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain a bounded amount so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseLen))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return nil
}

// GenerateSignature generates an HMAC-SHA256 signature for the payload.
func GenerateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature verifies an HMAC-SHA256 signature.
func VerifySignature(payload []byte, signature, secret string) bool {
	expectedSig := GenerateSignature(payload, secret)
	return hmac.Equal([]byte(signature), []byte(expectedSig))
}
