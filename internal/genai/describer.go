package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"

	"travelplanner/internal/config"
)

var (
	ErrDisabled      = errors.New("generative descriptions are disabled")
	ErrEmptyResponse = errors.New("model returned no text")
)

// Source откуда взят текст описания.
type Source string

const (
	SourceGenerated Source = "generated"
	SourceFallback  Source = "fallback"
)

// Description описание места и его происхождение.
type Description struct {
	Text   string
	Source Source
}

func (d Description) Generated() bool { return d.Source == SourceGenerated }

// Generator часть llms.Model, нужная для описаний.
type Generator interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// NewGoogleAI клиент Gemini через langchaingo.
func NewGoogleAI(ctx context.Context, cfg config.GenerativeConfig) (Generator, error) {
	client, err := googleai.New(ctx,
		googleai.WithAPIKey(cfg.APIKey),
		googleai.WithDefaultModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать клиент googleai: %w", err)
	}
	return client, nil
}

// Describer пишет короткие туристические описания мест.
// При любой ошибке модели возвращается шаблонный текст.
type Describer struct {
	generator Generator
	timeout   time.Duration
	logger    *log.Logger
}

// NewDescriber generator == nil означает, что генерация выключена.
func NewDescriber(generator Generator, timeout time.Duration, logger *log.Logger) *Describer {
	return &Describer{generator: generator, timeout: timeout, logger: logger}
}

func FallbackText(place string) string {
	return fmt.Sprintf("Discover %s, a fascinating destination with unique attractions and experiences.", place)
}

func Prompt(place, interests string) string {
	return fmt.Sprintf("Describe %s as a tourist destination in 2-3 lines, considering these interests: %s", place, interests)
}

// Describe всегда возвращает пригодное описание. Ошибка сообщает причину,
// по которой использован шаблон.
func (d *Describer) Describe(ctx context.Context, place, interests string) (Description, error) {
	fallback := Description{Text: FallbackText(place), Source: SourceFallback}
	if d == nil || d.generator == nil {
		return fallback, ErrDisabled
	}
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	resp, err := d.generator.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, Prompt(place, interests)),
	})
	if err != nil {
		d.logger.Warn("генерация описания не удалась", "place", place, "err", err)
		return fallback, err
	}
	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return fallback, ErrEmptyResponse
	}
	return Description{Text: strings.TrimSpace(resp.Choices[0].Content), Source: SourceGenerated}, nil
}
