package curriculum

import (
	"context"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Oracle answers a free-text prompt. Its output is untrusted.
type Oracle interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

type LLMOracle struct {
	llm         llms.Model
	temperature float64
	timeout     time.Duration
}

func NewLLMOracle(llm llms.Model, temperature float64, timeout time.Duration) *LLMOracle {
	return &LLMOracle{llm: llm, temperature: temperature, timeout: timeout}
}

func NewOpenAIOracle(apiKey, model string, temperature float64, timeout time.Duration) (*LLMOracle, error) {
	llm, err := openai.New(
		openai.WithModel(model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}
	return NewLLMOracle(llm, temperature, timeout), nil
}

func (o *LLMOracle) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, userPrompt),
	}

	resp, err := o.llm.GenerateContent(ctx, messages, llms.WithTemperature(o.temperature))
	if err != nil {
		return "", fmt.Errorf("failed to generate ranking response: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in ranking response")
	}

	return resp.Choices[0].Content, nil
}
