package handlers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

type sentText struct {
	room id.RoomID
	text string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentText
	err  error
}

func (f *fakeSender) SendText(ctx context.Context, roomID id.RoomID, text string) (*mautrix.RespSendEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentText{room: roomID, text: text})
	return &mautrix.RespSendEvent{}, f.err
}

func (f *fakeSender) texts() []sentText {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentText(nil), f.sent...)
}

func newTestGateway(replier *fakeReplier, sender *fakeSender) *MatrixGateway {
	return &MatrixGateway{
		sender:   sender,
		self:     "@bot:example.org",
		commands: NewCommandRouter(replier, &fakeConversations{}),
		since:    time.Now().Add(-time.Minute),
		queues:   make(map[id.UserID]chan *event.Event),
	}
}

func textEvent(sender id.UserID, msgType event.MessageType, body string, at time.Time) *event.Event {
	return &event.Event{
		Sender:    sender,
		RoomID:    "!room:example.org",
		Type:      event.EventMessage,
		Timestamp: at.UnixMilli(),
		Content: event.Content{Parsed: &event.MessageEventContent{
			MsgType: msgType,
			Body:    body,
		}},
	}
}

func TestMatrixHandleMessage(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name     string
		evt      *event.Event
		wantSent int
		wantText string
	}{
		{
			name:     "question",
			evt:      textEvent("@alice:example.org", event.MsgText, "What is the tuition?", now),
			wantSent: 1,
			wantText: "answer to What is the tuition?",
		},
		{
			name:     "command",
			evt:      textEvent("@alice:example.org", event.MsgText, "/help", now),
			wantSent: 1,
			wantText: helpMessage,
		},
		{name: "own message", evt: textEvent("@bot:example.org", event.MsgText, "hello", now)},
		{name: "notice", evt: textEvent("@alice:example.org", event.MsgNotice, "hello", now)},
		{name: "blank", evt: textEvent("@alice:example.org", event.MsgText, "   ", now)},
		{name: "replayed history", evt: textEvent("@alice:example.org", event.MsgText, "old", now.Add(-time.Hour))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sender := &fakeSender{}
			gateway := newTestGateway(&fakeReplier{}, sender)

			gateway.handleMessage(context.Background(), tt.evt)

			sent := sender.texts()
			if len(sent) != tt.wantSent {
				t.Fatalf("expected %d messages sent, got %d", tt.wantSent, len(sent))
			}
			if tt.wantSent > 0 && sent[0].text != tt.wantText {
				t.Errorf("expected %q, got %q", tt.wantText, sent[0].text)
			}
		})
	}
}

func TestMatrixUsesSenderAsUserID(t *testing.T) {
	replier := &fakeReplier{}
	gateway := newTestGateway(replier, &fakeSender{err: errors.New("rate limited")})

	gateway.handleMessage(context.Background(), textEvent("@alice:example.org", event.MsgText, "hi", time.Now()))

	if len(replier.calls) != 1 || replier.calls[0] != "@alice:example.org:hi" {
		t.Errorf("unexpected chat calls %v", replier.calls)
	}
}

func TestMatrixDispatchKeepsOrder(t *testing.T) {
	sender := &fakeSender{}
	gateway := newTestGateway(&fakeReplier{}, sender)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bodies := []string{"one", "two", "three", "four"}
	for _, body := range bodies {
		gateway.dispatch(ctx, textEvent("@alice:example.org", event.MsgText, body, time.Now()))
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(sender.texts()) < len(bodies) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	sent := sender.texts()
	if len(sent) != len(bodies) {
		t.Fatalf("expected %d replies, got %d", len(bodies), len(sent))
	}
	for i, body := range bodies {
		if sent[i].text != "answer to "+body {
			t.Errorf("reply %d: expected answer to %q, got %q", i, body, sent[i].text)
		}
	}
}
