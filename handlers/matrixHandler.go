package handlers

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

type TextSender interface {
	SendText(ctx context.Context, roomID id.RoomID, text string) (*mautrix.RespSendEvent, error)
}

// MatrixGateway relays room messages to the command router. The sender's
// MXID is the conversation key, so one user shares memory across rooms.
type MatrixGateway struct {
	client   *mautrix.Client
	sender   TextSender
	self     id.UserID
	commands *CommandRouter
	since    time.Time

	mu     sync.Mutex
	queues map[id.UserID]chan *event.Event
}

func NewMatrixGateway(homeserver, userID, accessToken string, commands *CommandRouter) (*MatrixGateway, error) {
	client, err := mautrix.NewClient(homeserver, id.UserID(userID), accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create matrix client: %w", err)
	}

	return &MatrixGateway{
		client:   client,
		sender:   client,
		self:     id.UserID(userID),
		commands: commands,
		since:    time.Now(),
		queues:   make(map[id.UserID]chan *event.Event),
	}, nil
}

// Run joins the rooms and syncs until ctx is cancelled.
func (g *MatrixGateway) Run(ctx context.Context, rooms []string) error {
	syncer := g.client.Syncer.(*mautrix.DefaultSyncer)
	syncer.OnEventType(event.EventMessage, func(_ context.Context, evt *event.Event) {
		g.dispatch(ctx, evt)
	})

	for _, room := range rooms {
		if _, err := g.client.JoinRoomByID(ctx, id.RoomID(room)); err != nil {
			log.Printf("[WARN] Could not join matrix room %s: %v", room, err)
		}
	}

	log.Printf("[INFO] Matrix gateway started as %s in %d rooms", g.self, len(rooms))

	backoff := 2 * time.Second
	for {
		err := g.client.SyncWithContext(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			backoff = 2 * time.Second
			continue
		}

		log.Printf("[ERROR] Matrix sync failed, retrying in %s: %v", backoff, err)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 5*time.Minute)
	}
}

// dispatch hands the event to its sender's worker so each user's messages are
// answered in the order they were sent without blocking the sync loop.
func (g *MatrixGateway) dispatch(ctx context.Context, evt *event.Event) {
	g.mu.Lock()
	queue, ok := g.queues[evt.Sender]
	if !ok {
		queue = make(chan *event.Event, 32)
		g.queues[evt.Sender] = queue
		go g.worker(ctx, queue)
	}
	g.mu.Unlock()

	select {
	case queue <- evt:
	case <-ctx.Done():
	}
}

func (g *MatrixGateway) worker(ctx context.Context, queue <-chan *event.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-queue:
			g.handleMessage(ctx, evt)
		}
	}
}

func (g *MatrixGateway) handleMessage(ctx context.Context, evt *event.Event) {
	if evt.Sender == g.self {
		return
	}
	// the first sync replays room history
	if time.UnixMilli(evt.Timestamp).Before(g.since) {
		return
	}

	msg := evt.Content.AsMessage()
	if msg == nil || msg.MsgType != event.MsgText {
		return
	}
	text := strings.TrimSpace(msg.Body)
	if text == "" {
		return
	}

	reply := g.commands.Respond(ctx, evt.Sender.String(), text)
	if _, err := g.sender.SendText(ctx, evt.RoomID, reply); err != nil {
		log.Printf("[ERROR] Failed to send reply to %s in room %s: %v", evt.Sender, evt.RoomID, err)
	}
}
