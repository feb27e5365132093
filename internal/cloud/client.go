// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"
	"go.uber.org/zap"

	"github.com/jeranaias/chatptq/internal/logging"
	"github.com/jeranaias/chatptq/internal/model"
	"github.com/jeranaias/chatptq/internal/netclient"
)

// =============================================================================
// CLIENT
// =============================================================================

// SnapshotSource provides the current network configuration.
// *netclient.Registry implements it.
type SnapshotSource interface {
	Snapshot() *netclient.Snapshot
}

// Client sends chat completion requests using whatever configuration the
// source holds at call time. It is safe for concurrent use.
type Client struct {
	source SnapshotSource
	logger *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the gateway logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a gateway reading its configuration from source.
func New(source SnapshotSource, opts ...Option) *Client {
	c := &Client{source: source}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrNop(c.logger).Named("cloud")
	return c
}

// Model returns the currently configured model name.
func (c *Client) Model() string {
	return c.source.Snapshot().Config.Model
}

// IsConfigured reports whether an API key is set.
func (c *Client) IsConfigured() bool {
	return c.source.Snapshot().Config.APIKey != ""
}

// KeyFingerprint returns a short fingerprint of the configured key for display.
func (c *Client) KeyFingerprint() string {
	return logging.Fingerprint(c.source.Snapshot().Config.APIKey)
}

// =============================================================================
// SEND
// =============================================================================

// Send performs one chat completion round trip with messages as the full
// context. It returns the first choice and the reported token usage.
func (c *Client) Send(ctx context.Context, messages []model.Message) (*model.ChatResponse, error) {
	snap := c.source.Snapshot()
	cfg := snap.Config

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key not configured", ErrAuthFailed)
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL(cfg.BaseURL)),
		option.WithHTTPClient(snap.Client),
		option.WithMaxRetries(0),
	)

	params := openai.ChatCompletionNewParams{
		Messages: toParams(messages),
		Model:    shared.ChatModel(cfg.Model),
	}

	start := time.Now()
	completion, err := client.Chat.Completions.New(ctx, params)
	duration := time.Since(start)

	fields := []zap.Field{
		zap.String("model", cfg.Model),
		zap.String("key_fp", logging.Fingerprint(cfg.APIKey)),
		zap.String("proxy", snap.ProxyURL()),
		zap.Uint64("config_version", snap.Version),
		zap.Int("messages", len(messages)),
		zap.Duration("duration", duration),
	}

	if err != nil {
		mapped := classify(err)
		c.logger.Warn("chat completion failed", append(fields, zap.Error(mapped))...)
		return nil, mapped
	}

	if len(completion.Choices) == 0 {
		c.logger.Warn("chat completion returned no choices", fields...)
		return nil, fmt.Errorf("%w: response contained no choices", ErrProtocol)
	}

	resp := &model.ChatResponse{
		Message:          model.NewAssistantMessage(completion.Choices[0].Message.Content),
		PromptTokens:     int(completion.Usage.PromptTokens),
		CompletionTokens: int(completion.Usage.CompletionTokens),
	}

	c.logger.Debug("chat completion",
		append(fields,
			zap.Int("prompt_tokens", resp.PromptTokens),
			zap.Int("completion_tokens", resp.CompletionTokens))...)

	return resp, nil
}

// classify maps an openai-go error onto the gateway error classes.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %s (status %d)", ErrAuthFailed, msg, apiErr.StatusCode)
		default:
			return fmt.Errorf("%w: %s (status %d)", ErrProtocol, msg, apiErr.StatusCode)
		}
	}

	if isTransportError(err) {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return fmt.Errorf("%w: failed to parse response: %v", ErrProtocol, err)
}

func toParams(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case model.RoleUser:
			out = append(out, openai.UserMessage(msg.Content))
		case model.RoleAssistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		case model.RoleSystem:
			out = append(out, openai.SystemMessage(msg.Content))
		}
	}
	return out
}

func baseURL(u string) string {
	if u == "" {
		u = netclient.DefaultBaseURL
	}
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}
