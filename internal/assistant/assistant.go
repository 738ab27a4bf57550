package assistant

import (
	"context"
	"errors"
	"strings"
	"time"

	"chatpush/internal/constants"
	apperrors "chatpush/internal/errors"
	"chatpush/internal/metrics"
	"chatpush/internal/models"
	"chatpush/internal/service"
	"chatpush/internal/tracing"
	"chatpush/internal/validation"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const systemPrompt = "You are a concise assistant inside a chat application. Reply in plain text."

// ChatCompleter is the part of the OpenAI client the assistant uses
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client produces assistant replies. Without an API key it is disabled and
// every reply is empty.
type Client struct {
	completer ChatCompleter
	model     string
	timeout   time.Duration
	breaker   *Breaker
	logger    logrus.FieldLogger
	metrics   *metrics.Metrics
}

// New builds the assistant from configuration
func New(cfg models.AssistantConfig, logger *logrus.Logger) *Client {
	c := newClient(cfg.Model, cfg.TimeoutSec, logger)
	if cfg.APIKey == "" {
		c.logger.Info("Assistant API key not set, assistant disabled")
		return c
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	c.completer = openai.NewClientWithConfig(clientConfig)
	return c
}

// NewWithCompleter builds an enabled assistant over completer
func NewWithCompleter(completer ChatCompleter, model string, logger *logrus.Logger) *Client {
	c := newClient(model, 0, logger)
	c.completer = completer
	return c
}

func newClient(model string, timeoutSec int, logger *logrus.Logger) *Client {
	log := logger.WithField(service.LogFieldComponent, "assistant")
	if model == "" {
		model = constants.DefaultAssistantModel
	}
	if timeoutSec <= 0 {
		timeoutSec = constants.DefaultAssistantTimeoutSec
	}

	return &Client{
		model:   model,
		timeout: time.Duration(timeoutSec) * time.Second,
		logger:  log,
		metrics: metrics.Default(),
		breaker: NewBreaker("assistant", constants.DefaultAssistantMaxFailures,
			time.Duration(constants.DefaultAssistantBreakerResetSec)*time.Second, log),
	}
}

// WithMetrics sets the metrics sink and returns the client
func (c *Client) WithMetrics(m *metrics.Metrics) *Client {
	c.metrics = m
	return c
}

// Enabled reports whether replies are produced
func (c *Client) Enabled() bool {
	return c.completer != nil
}

// Reply answers prompt. A disabled assistant returns an empty reply and no error.
func (c *Client) Reply(ctx context.Context, prompt string) (string, error) {
	if !c.Enabled() {
		c.logger.Debug("Assistant disabled, skipping reply")
		c.metrics.AssistantRequest("disabled")
		return "", nil
	}

	prompt = strings.TrimSpace(prompt)
	if err := validation.ValidateStringLength(prompt, "prompt", 1, constants.MaxAssistantPromptLength); err != nil {
		return "", err
	}

	ctx, span := tracing.StartSpan(ctx, "assistant.reply",
		attribute.String("assistant.model", c.model),
		attribute.Int("assistant.prompt_length", len(prompt)),
	)
	defer span.End()

	var reply string
	start := time.Now()
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.completer.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return errors.New("empty completion")
		}
		reply = resp.Choices[0].Message.Content
		return nil
	})

	logger := c.logger.WithField(service.LogFieldDuration, time.Since(start).String())
	if err != nil {
		var openErr *OpenError
		if errors.As(err, &openErr) {
			c.metrics.AssistantRequest("rejected")
		} else {
			c.metrics.AssistantRequest("error")
		}
		tracing.RecordError(ctx, err)
		appErr := apperrors.NewAssistantError(err)
		apperrors.LogError(logger, appErr, "Assistant request failed")
		return "", appErr
	}

	c.metrics.AssistantRequest("success")
	logger.WithField(service.LogFieldSize, len(reply)).Debug("Assistant reply received")
	return reply, nil
}
