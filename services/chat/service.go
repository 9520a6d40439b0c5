package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"admissionbot/metrics"
	"admissionbot/models"
	"admissionbot/services"

	"github.com/google/uuid"
)

const (
	Apology     = "Sorry, something went wrong while preparing the answer. Please try again later."
	EmptyPrompt = "Please ask a question about the AI or AI Product master's programs."
)

type Agent interface {
	Reply(ctx context.Context, history models.History, text string) (string, error)
}

type Memory interface {
	GetOrCreate(userID string) *services.Conversation
	History(ctx context.Context, userID string) (models.History, error)
	AppendTurn(ctx context.Context, userID, input, output string)
}

// Service routes each message to the agent together with the sender's own
// history. Messages from one user are handled one at a time, in arrival
// order; different users do not wait for each other.
type Service struct {
	agent   Agent
	memory  Memory
	metrics *metrics.Metrics

	mu    sync.Mutex
	locks map[string]*userLock
}

// userLock is held by at most one request; refs counts the holder and the
// waiters so the entry can be dropped once nobody uses it.
type userLock struct {
	ch   chan struct{}
	refs int
}

func NewService(agent Agent, memory Memory, m *metrics.Metrics) *Service {
	return &Service{
		agent:   agent,
		memory:  memory,
		metrics: m,
		locks:   make(map[string]*userLock),
	}
}

func (s *Service) acquire(ctx context.Context, userID string) (release func(), err error) {
	s.mu.Lock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &userLock{ch: make(chan struct{}, 1)}
		s.locks[userID] = lock
	}
	lock.refs++
	s.mu.Unlock()

	done := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, userID)
		}
	}

	select {
	case lock.ch <- struct{}{}:
		return func() {
			<-lock.ch
			done()
		}, nil
	case <-ctx.Done():
		done()
		return nil, ctx.Err()
	}
}

// Handle answers one message and always returns text for the user.
func (s *Service) Handle(ctx context.Context, userID, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return EmptyPrompt
	}

	info := models.RequestInfo{UserID: userID, RequestID: uuid.NewString()}
	ctx = models.WithRequestInfo(ctx, info)
	start := time.Now()

	release, err := s.acquire(ctx, userID)
	if err != nil {
		log.Printf("[WARN] Request %s for user %s cancelled while waiting: %v", info.RequestID, userID, err)
		s.metrics.ObserveChat("cancelled", time.Since(start))
		return Apology
	}
	defer release()

	log.Printf("[INFO] Handling message for user %s (request %s)", userID, info.RequestID)

	reply, err := s.reply(ctx, userID, text)
	if err != nil {
		log.Printf("[ERROR] Failed to answer user %s (request %s): %v", userID, info.RequestID, err)
		s.metrics.ObserveChat("error", time.Since(start))
		return Apology
	}

	s.memory.AppendTurn(ctx, userID, text, reply)
	s.metrics.ObserveChat("ok", time.Since(start))
	return reply
}

func (s *Service) reply(ctx context.Context, userID, text string) (reply string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent panicked: %v", r)
		}
	}()

	s.memory.GetOrCreate(userID)

	history, err := s.memory.History(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load history: %w", err)
	}

	reply, err = s.agent.Reply(ctx, history, text)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(reply) == "" {
		return "", errors.New("agent returned an empty reply")
	}
	return reply, nil
}
