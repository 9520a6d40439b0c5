package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"admissionbot/metrics"
	"admissionbot/models"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory"
	"github.com/tmc/langchaingo/schema"
)

type ConversationOptions struct {
	Retention      models.RetentionPolicy
	WindowSize     int
	ReturnMessages bool
}

// Conversation is one user's memory. Operations on it are serialized by mu.
type Conversation struct {
	mu      sync.Mutex
	buffer  schema.Memory
	history schema.ChatMessageHistory
}

// ConversationService keeps one conversation per user in process memory.
type ConversationService struct {
	mu            sync.RWMutex
	conversations map[string]*Conversation
	opts          ConversationOptions
	metrics       *metrics.Metrics
}

func NewConversationService(opts ConversationOptions, m *metrics.Metrics) (*ConversationService, error) {
	switch opts.Retention {
	case models.RetentionUnbounded:
	case models.RetentionWindowed:
		if opts.WindowSize <= 0 {
			return nil, fmt.Errorf("window size must be positive, got %d", opts.WindowSize)
		}
	default:
		return nil, fmt.Errorf("unsupported retention policy %q", opts.Retention)
	}

	return &ConversationService{
		conversations: make(map[string]*Conversation),
		opts:          opts,
		metrics:       m,
	}, nil
}

func (s *ConversationService) newConversation() *Conversation {
	history := memory.NewChatMessageHistory()
	options := []memory.ConversationBufferOption{
		memory.WithChatHistory(history),
		memory.WithReturnMessages(s.opts.ReturnMessages),
	}

	conv := &Conversation{history: history}
	if s.opts.Retention == models.RetentionWindowed {
		conv.buffer = memory.NewConversationWindowBuffer(s.opts.WindowSize, options...)
	} else {
		conv.buffer = memory.NewConversationBuffer(options...)
	}
	return conv
}

func (s *ConversationService) lookup(userID string) (*Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[userID]
	return conv, ok
}

func (s *ConversationService) GetOrCreate(userID string) *Conversation {
	if conv, ok := s.lookup(userID); ok {
		return conv
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if conv, ok := s.conversations[userID]; ok {
		return conv
	}

	conv := s.newConversation()
	s.conversations[userID] = conv
	s.metrics.SetActiveConversations(len(s.conversations))
	log.Printf("[INFO] Created %s conversation for user %s", s.opts.Retention, userID)
	return conv
}

// AppendTurn records one exchange. Failures are logged and the turn is
// dropped; the caller's reply is unaffected.
func (s *ConversationService) AppendTurn(ctx context.Context, userID, input, output string) {
	conv, ok := s.lookup(userID)
	if !ok {
		log.Printf("[WARN] Dropping turn for user %s: conversation no longer exists", userID)
		return
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()

	err := conv.buffer.SaveContext(ctx,
		map[string]any{"input": input},
		map[string]any{"output": output},
	)
	if err != nil {
		log.Printf("[ERROR] Dropping turn for user %s: failed to save context: %v", userID, err)
	}
}

// Clear resets the user's conversation. It reports false, and creates
// nothing, when the user has no conversation.
func (s *ConversationService) Clear(ctx context.Context, userID string) bool {
	conv, ok := s.lookup(userID)
	if !ok {
		log.Printf("[INFO] Nothing to clear for user %s", userID)
		return false
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()

	if err := conv.buffer.Clear(ctx); err != nil {
		log.Printf("[ERROR] Failed to clear conversation for user %s: %v", userID, err)
		return false
	}

	log.Printf("[INFO] Cleared conversation for user %s", userID)
	return true
}

// Remove forgets the user entirely.
func (s *ConversationService) Remove(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[userID]; !ok {
		return false
	}
	delete(s.conversations, userID)
	s.metrics.SetActiveConversations(len(s.conversations))
	return true
}

func (s *ConversationService) Stats() models.ConversationStats {
	s.mu.RLock()
	count := len(s.conversations)
	s.mu.RUnlock()

	stats := models.ConversationStats{
		UserCount:      count,
		Retention:      s.opts.Retention,
		ReturnMessages: s.opts.ReturnMessages,
	}
	if s.opts.Retention == models.RetentionWindowed {
		stats.WindowSize = s.opts.WindowSize
	}
	return stats
}

// History returns the user's conversation serialized the way the agent
// consumes it. Unknown users get an empty history.
func (s *ConversationService) History(ctx context.Context, userID string) (models.History, error) {
	conv, ok := s.lookup(userID)
	if !ok {
		return models.History{}, nil
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()

	vars, err := conv.buffer.LoadMemoryVariables(ctx, map[string]any{})
	if err != nil {
		return models.History{}, fmt.Errorf("failed to load memory variables: %w", err)
	}

	switch value := vars[conv.buffer.GetMemoryKey(ctx)].(type) {
	case []llms.ChatMessage:
		return models.History{Turns: toTurns(value)}, nil
	case string:
		return models.History{Transcript: value}, nil
	default:
		return models.History{}, fmt.Errorf("unexpected memory value of type %T", value)
	}
}

// Turns returns the retained turns in insertion order.
func (s *ConversationService) Turns(ctx context.Context, userID string) ([]models.Turn, error) {
	conv, ok := s.lookup(userID)
	if !ok {
		return []models.Turn{}, nil
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()

	messages, err := conv.history.Messages(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return toTurns(messages), nil
}

func toTurns(messages []llms.ChatMessage) []models.Turn {
	turns := make([]models.Turn, 0, len(messages))
	for _, msg := range messages {
		speaker := models.SpeakerHuman
		if msg.GetType() == llms.ChatMessageTypeAI {
			speaker = models.SpeakerAI
		}
		turns = append(turns, models.Turn{Speaker: speaker, Text: msg.GetContent()})
	}
	return turns
}
