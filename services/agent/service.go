package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"admissionbot/metrics"
	"admissionbot/models"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var ErrNoReply = errors.New("agent produced no reply")

// MessagesClient is the part of the Anthropic client the agent uses.
type MessagesClient interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

type Options struct {
	Model     string
	MaxSteps  int
	MaxTokens int64
}

// Service answers one message at a time. It keeps no per-conversation state:
// the caller passes the history with every call, so one Service can serve
// any number of users concurrently.
type Service struct {
	client  MessagesClient
	tools   []AgentTool
	opts    Options
	metrics *metrics.Metrics
}

func NewService(anthropicAPIKey string, tools []AgentTool, opts Options, m *metrics.Metrics) *Service {
	client := anthropic.NewClient(option.WithAPIKey(anthropicAPIKey))
	return NewServiceWithClient(&client.Messages, tools, opts, m)
}

func NewServiceWithClient(client MessagesClient, tools []AgentTool, opts Options, m *metrics.Metrics) *Service {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 5
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 4096
	}
	if opts.Model == "" {
		opts.Model = string(anthropic.ModelClaudeSonnet4_20250514)
	}

	return &Service{
		client:  client,
		tools:   tools,
		opts:    opts,
		metrics: m,
	}
}

// Reply runs the tool loop for one user message and returns the final text.
func (s *Service) Reply(ctx context.Context, history models.History, text string) (string, error) {
	info := models.RequestInfoFrom(ctx)
	log.Printf("[INFO] Starting agent reply for user %s (request %s)", info.UserID, info.RequestID)

	messages := s.historyToMessages(history)
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(text)))

	system := AgentSystemPrompt
	if history.Transcript != "" {
		system += historySection + history.Transcript
	}

	toolSpecs := s.buildAnthropicToolSpecs()

	var reply string
	for step := 1; step <= s.opts.MaxSteps; step++ {
		response, err := s.client.New(ctx, anthropic.MessageNewParams{
			Model:       anthropic.Model(s.opts.Model),
			MaxTokens:   s.opts.MaxTokens,
			System:      []anthropic.TextBlockParam{{Text: system}},
			Messages:    messages,
			Tools:       toolSpecs,
			Temperature: anthropic.Float(0),
		})
		if err != nil {
			log.Printf("[ERROR] Failed to call Anthropic API: %v", err)
			return "", fmt.Errorf("failed to call Anthropic API: %w", err)
		}

		s.logAnthropicResponse(step, response)
		messages = append(messages, response.ToParam())

		toolUses := []anthropic.ToolUseBlock{}
		var assistantText strings.Builder
		for _, block := range response.Content {
			switch block := block.AsAny().(type) {
			case anthropic.TextBlock:
				assistantText.WriteString(block.Text)
			case anthropic.ToolUseBlock:
				toolUses = append(toolUses, block)
			}
		}

		// text next to a tool call is a preamble, not the answer
		if len(toolUses) == 0 {
			reply = assistantText.String()
			break
		}

		if step == s.opts.MaxSteps {
			log.Printf("[WARN] Agent reached the step limit of %d for user %s", s.opts.MaxSteps, info.UserID)
			return "", ErrNoReply
		}

		toolResults := make([]anthropic.ContentBlockParamUnion, 0, len(toolUses))
		for _, toolUse := range toolUses {
			inputJSON, _ := json.Marshal(toolUse.Input)
			result := s.runTool(ctx, toolUse.Name, string(inputJSON))

			toolResults = append(toolResults, anthropic.ContentBlockParamUnion{
				OfToolResult: &anthropic.ToolResultBlockParam{
					ToolUseID: toolUse.ID,
					Content: []anthropic.ToolResultBlockParamContentUnion{
						{OfText: &anthropic.TextBlockParam{Text: result}},
					},
				},
			})
		}
		messages = append(messages, anthropic.NewUserMessage(toolResults...))
	}

	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", ErrNoReply
	}

	log.Printf("[INFO] Agent reply completed for user %s (%d characters)", info.UserID, len(reply))
	return reply, nil
}

// runTool never fails: errors are logged and handed back to the model as the
// tool result.
func (s *Service) runTool(ctx context.Context, name, input string) string {
	info := models.RequestInfoFrom(ctx)
	log.Printf("[INFO] Executing tool %s for user %s with arguments: %s", name, info.UserID, input)

	result, err := s.executeTool(ctx, name, input)
	if err != nil {
		log.Printf("[ERROR] Tool %s failed for user %s (request %s): %v", name, info.UserID, info.RequestID, err)
		s.metrics.ObserveToolCall(name, "error")
		return fmt.Sprintf("Error: %v", err)
	}

	s.metrics.ObserveToolCall(name, "ok")
	log.Printf("[INFO] Tool %s returned %d characters", name, len(result))
	return result
}

func (s *Service) executeTool(ctx context.Context, toolName, arguments string) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool %s panicked: %v", toolName, r)
		}
	}()

	for _, tool := range s.tools {
		if tool.Name() == toolName {
			return tool.Call(ctx, arguments)
		}
	}
	return "", fmt.Errorf("tool %s not found", toolName)
}

// historyToMessages turns structured turns into alternating messages. The
// Messages API requires the first message to come from the user.
func (s *Service) historyToMessages(history models.History) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	for _, turn := range history.Turns {
		if turn.Text == "" {
			continue
		}
		switch turn.Speaker {
		case models.SpeakerHuman:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Text)))
		case models.SpeakerAI:
			if len(messages) == 0 {
				continue
			}
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.Text)))
		}
	}

	return messages
}

func (s *Service) buildAnthropicToolSpecs() []anthropic.ToolUnionParam {
	var toolSpecs []anthropic.ToolUnionParam

	for _, tool := range s.tools {
		toolSpecs = append(toolSpecs, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name(),
				Description: anthropic.String(tool.Description()),
				InputSchema: tool.GetAnthropicToolSpec(),
			},
		})
	}

	return toolSpecs
}

func (s *Service) logAnthropicResponse(step int, response *anthropic.Message) {
	toolCallCount := 0
	for _, block := range response.Content {
		if _, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			toolCallCount++
		}
	}
	log.Printf("[INFO] Anthropic response (step %d): model=%s stop_reason=%s blocks=%d tool_calls=%d",
		step, response.Model, response.StopReason, len(response.Content), toolCallCount)
}
