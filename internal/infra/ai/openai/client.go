package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/comms-analyzer/internal/common"
	domain "github.com/bryanwahyu/comms-analyzer/internal/domain/analysis"
)

// Fixed sampling settings for schema-conformant replies.
const (
	maxTokens   = 2000
	temperature = 0.3
)

const (
	ProviderAzure  = "azure"
	ProviderOpenAI = "openai"

	defaultAzureAPIVersion = "2024-02-15-preview"
	step                   = "analysis"
)

// Config selects one chat-completions endpoint. For Azure, Model is the
// deployment id; for OpenAI-compatible endpoints it is the model name.
type Config struct {
	Provider   string
	BaseURL    string
	APIKey     string
	Model      string
	APIVersion string
	Timeout    time.Duration

	// Reasoning switches to max_completion_tokens and the provider's
	// default temperature, the only request shape reasoning deployments accept.
	Reasoning bool
}

type Client struct {
	*openai.Client
	Model     string
	reasoning bool
	log       logrus.FieldLogger
}

var _ domain.Client = (*Client)(nil)

func NewClient(cfg Config, log logrus.FieldLogger) (*Client, error) {
	if cfg.Model == "" {
		return nil, errors.New("llm model/deployment is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	var oc openai.ClientConfig
	switch strings.ToLower(cfg.Provider) {
	case ProviderAzure:
		if cfg.BaseURL == "" {
			return nil, errors.New("azure provider requires a base url")
		}
		oc = openai.DefaultAzureConfig(cfg.APIKey, strings.TrimRight(cfg.BaseURL, "/"))
		oc.APIVersion = cfg.APIVersion
		if oc.APIVersion == "" {
			oc.APIVersion = defaultAzureAPIVersion
		}
		deployment := cfg.Model
		oc.AzureModelMapperFunc = func(string) string { return deployment }
	case ProviderOpenAI, "":
		oc = openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	oc.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{Client: openai.NewClientWithConfig(oc), Model: cfg.Model, reasoning: cfg.Reasoning, log: log}, nil
}

// Complete sends prompt as a single user message and returns the first
// choice's content.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if c.reasoning {
		c.log.WithField("model", c.Model).Warn("llm.reasoning_model_default_temperature")
		req.MaxCompletionTokens = maxTokens
	} else {
		req.MaxTokens = maxTokens
		req.Temperature = temperature
	}

	start := time.Now()
	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		c.log.WithError(err).WithField("elapsed_ms", time.Since(start).Milliseconds()).Error("llm.chat_completion_failed")
		return "", requestError(err)
	}

	c.log.WithFields(logrus.Fields{
		"model":             resp.Model,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"elapsed_ms":        time.Since(start).Milliseconds(),
	}).Info("llm.chat_completion")

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &common.AppError{Kind: domain.ErrEmptyReply, Step: step}
	}
	return resp.Choices[0].Message.Content, nil
}

// requestError maps a go-openai failure onto ErrRequest, keeping the
// upstream status and message. 429 is additionally ErrQuotaExceeded.
func requestError(err error) error {
	appErr := &common.AppError{Kind: domain.ErrRequest, Step: step, Cause: err}

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		appErr.StatusCode = apiErr.HTTPStatusCode
		appErr.Detail = strings.TrimSpace(apiErr.HTTPStatus + " - " + apiErr.Message)
	case errors.As(err, &reqErr):
		appErr.StatusCode = reqErr.HTTPStatusCode
		appErr.Detail = reqErr.Error()
	}

	if appErr.StatusCode == http.StatusTooManyRequests {
		appErr.Cause = fmt.Errorf("%w: %w", domain.ErrQuotaExceeded, err)
	}
	return appErr
}
