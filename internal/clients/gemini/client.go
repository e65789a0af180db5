package gemini

import (
	"context"
	"errors"
	"github.com/google/generative-ai-go/genai"
	"github.com/maxaizer/jobs-finder/internal/logger"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"strings"
	"time"
)

type Model string

const (
	Model15Flash   Model = "gemini-1.5-flash"
	Model15Flash8b Model = "gemini-1.5-flash-8b"
	Model15Pro     Model = "gemini-1.5-pro"
)

const (
	maxAttempts     = 3
	retryDelay      = 2 * time.Second
	temperature     = 0.7
	maxOutputTokens = 1024
)

var (
	ErrEmptyResponse = errors.New("response has no text")
	ErrBlocked       = errors.New("response was blocked")
)

// Client generates short free-form texts such as application letters.
type Client struct {
	client            *genai.Client
	model             *genai.GenerativeModel
	minuteRateLimiter *rate.Limiter
	dayRateLimiter    *rate.Limiter
}

func NewClient(ctx context.Context, apiKey string, model Model) (*Client, error) {

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	if model == "" {
		model = Model15Flash
	}
	genModel := client.GenerativeModel(string(model))
	genModel.SetTemperature(temperature)
	genModel.SetMaxOutputTokens(maxOutputTokens)

	return &Client{client: client, model: genModel}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) SetMinuteRateLimit(maxRequestsPerMinute float32) {
	if maxRequestsPerMinute <= 0 {
		c.minuteRateLimiter = nil
		return
	}
	c.minuteRateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerMinute/60), 1)
}

func (c *Client) SetDayRateLimit(maxRequestsPerDay float32) {
	if maxRequestsPerDay <= 0 {
		c.dayRateLimiter = nil
		return
	}
	c.dayRateLimiter = rate.NewLimiter(rate.Limit(maxRequestsPerDay/86400), int(maxRequestsPerDay))
}

// GenerateResponse retries only server side failures, everything else is returned as is.
func (c *Client) GenerateResponse(ctx context.Context, text string) (string, error) {

	var resp string
	var err error

	_, _, _ = lo.AttemptWhileWithDelay(maxAttempts, retryDelay, func(i int, _ time.Duration) (error, bool) {
		if i > 0 {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
				Warnf("gemini api failed on attempt %d, retrying: %v", i, err)
		}
		resp, err = c.waitAndGenerate(ctx, text)
		return err, isServerError(err)
	})

	return resp, err
}

func (c *Client) waitAndGenerate(ctx context.Context, text string) (string, error) {

	for _, limiter := range []*rate.Limiter{c.minuteRateLimiter, c.dayRateLimiter} {
		if limiter == nil {
			continue
		}
		if err := limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	response, err := c.model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return "", err
	}
	return responseText(response)
}

func responseText(response *genai.GenerateContentResponse) (string, error) {

	if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", ErrBlocked
	}
	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var builder strings.Builder
	for _, part := range response.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			builder.WriteString(string(textPart))
		}
	}

	text := strings.TrimSpace(builder.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 500
	}
	return strings.Contains(err.Error(), "Error 500")
}
