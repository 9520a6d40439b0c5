package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"

	"admissionbot/models"
)

const (
	startMessage = "Hello! I can answer questions about two ITMO master's programs: " +
		"Artificial Intelligence (ai) and AI Product (ai_product).\n\n" +
		"Ask your question, or tell me about your background, interests and goals to get a study plan. Type /help for the command list."

	helpMessage = "Available commands:\n" +
		"/start - start the conversation\n" +
		"/help - show this message\n" +
		"/clear - forget our conversation\n" +
		"/stats - memory statistics\n" +
		"Or just type your question."

	clearedMessage = "Conversation history cleared."
	nothingToClear = "There is no conversation history to clear."
	unknownCommand = "Unknown command %s. Type /help for the command list."
	userRemoved    = "User and conversation removed."
	unknownUser    = "No conversation exists for this user."
)

type Replier interface {
	Handle(ctx context.Context, userID, text string) string
}

type ConversationAdmin interface {
	Clear(ctx context.Context, userID string) bool
	Remove(userID string) bool
	Stats() models.ConversationStats
	Turns(ctx context.Context, userID string) ([]models.Turn, error)
}

// CommandRouter answers slash commands itself and hands everything else to
// the chat service. It is shared by every transport.
type CommandRouter struct {
	chat          Replier
	conversations ConversationAdmin
}

func NewCommandRouter(chat Replier, conversations ConversationAdmin) *CommandRouter {
	return &CommandRouter{chat: chat, conversations: conversations}
}

func (c *CommandRouter) Respond(ctx context.Context, userID, text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return c.chat.Handle(ctx, userID, text)
	}

	command := strings.ToLower(strings.Fields(trimmed)[0])
	log.Printf("[INFO] Command %s from user %s", command, userID)

	switch command {
	case "/start":
		return startMessage
	case "/help":
		return helpMessage
	case "/clear":
		if c.conversations.Clear(ctx, userID) {
			return clearedMessage
		}
		return nothingToClear
	case "/stats":
		return formatStats(c.conversations.Stats())
	default:
		return fmt.Sprintf(unknownCommand, command)
	}
}

func formatStats(stats models.ConversationStats) string {
	retention := string(stats.Retention)
	if stats.Retention == models.RetentionWindowed {
		retention = fmt.Sprintf("%s (last %d exchanges)", retention, stats.WindowSize)
	}
	return fmt.Sprintf("Active conversations: %d\nRetention: %s\nStructured history: %t",
		stats.UserCount, retention, stats.ReturnMessages)
}
