// Package session runs the live editing sessions: one room per open
// map, each owning the authoritative editor state, with websocket
// clients submitting commands and receiving full-state notifications.
package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/coder/websocket"

	"github.com/gridforge/gridforge/internal/editor"
	"github.com/gridforge/gridforge/internal/scene"
)

// DocumentLoader fetches the latest persisted document for a map.
type DocumentLoader func(ctx context.Context, mapID string) (*scene.MapDocument, error)

// DocumentSaver persists a new snapshot of a map's document.
type DocumentSaver func(ctx context.Context, mapID string, doc *scene.MapDocument) error

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*Room // mapID -> room
	register   chan *Client
	unregister chan *Client

	loader     DocumentLoader
	saver      DocumentSaver
	editorOpts editor.Options

	done chan struct{}
}

func NewHub(loader DocumentLoader, saver DocumentSaver, opts editor.Options) *Hub {
	return &Hub{
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		loader:     loader,
		saver:      saver,
		editorOpts: opts,
		done:       make(chan struct{}),
	}
}

// Run processes joins and leaves until ctx is canceled, then flushes
// every dirty room to storage.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.register:
			h.addClient(ctx, client)
		case client := <-h.unregister:
			h.removeClient(ctx, client)
		case <-ctx.Done():
			h.saveAll()
			close(h.done)
			return
		}
	}
}

// Done is closed once Run has flushed all rooms after cancellation.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) addClient(ctx context.Context, client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.MapID]
	if !ok {
		doc, err := h.loader(ctx, client.MapID)
		if err != nil {
			h.mu.Unlock()
			slog.Error("load map for session", "map", client.MapID, "error", err)
			client.SendError("map unavailable")
			client.conn.Close(websocket.StatusInternalError, "map unavailable")
			return
		}
		room, err = NewRoom(client.MapID, doc, h.editorOpts)
		if err != nil {
			h.mu.Unlock()
			slog.Error("open room", "map", client.MapID, "error", err)
			client.SendError("map unavailable")
			client.conn.Close(websocket.StatusInternalError, "map unavailable")
			return
		}
		h.rooms[client.MapID] = room
	}
	h.mu.Unlock()

	room.mu.Lock()
	room.clients[client.ClientID] = client
	room.mu.Unlock()

	// Joining clients get the full document, then presence.
	if state := room.stateMessage(); state != nil {
		client.Send(state)
	}
	if presence := room.presence.StateMessage(); presence != nil {
		client.Send(presence)
	}

	joinPayload, _ := json.Marshal(PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	room.broadcast(&Message{
		Type:    TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}, client.ClientID)

	slog.Info("client joined", "user", client.UserID, "map", client.MapID)
}

func (h *Hub) removeClient(ctx context.Context, client *Client) {
	h.mu.Lock()
	room, ok := h.rooms[client.MapID]
	if !ok {
		h.mu.Unlock()
		return
	}

	room.mu.Lock()
	delete(room.clients, client.ClientID)
	empty := len(room.clients) == 0
	room.mu.Unlock()

	client.closeSend()
	room.presence.Remove(client.UserID)

	if empty {
		delete(h.rooms, client.MapID)
	}
	h.mu.Unlock()

	if empty {
		h.saveRoom(ctx, room)
	} else {
		leavePayload, _ := json.Marshal(PresenceLeavePayload{UserID: client.UserID})
		room.broadcast(&Message{
			Type:    TypePresenceLeave,
			UserID:  client.UserID,
			Payload: leavePayload,
		}, "")
	}

	slog.Info("client left", "user", client.UserID, "map", client.MapID)
}

func (h *Hub) handleMessage(ctx context.Context, sender *Client, msg *Message) {
	h.mu.RLock()
	room, ok := h.rooms[sender.MapID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	switch msg.Type {
	case TypeCommand:
		var cmd Command
		if err := json.Unmarshal(msg.Payload, &cmd); err != nil {
			slog.Warn("invalid command payload", "error", err, "user", sender.UserID)
			sender.SendError("malformed command")
			return
		}
		room.handleCommand(ctx, sender, &cmd)

	case TypeBoundsReport:
		var report BoundsReportPayload
		if err := json.Unmarshal(msg.Payload, &report); err != nil {
			slog.Warn("invalid bounds report", "error", err, "user", sender.UserID)
			return
		}
		room.visuals.UpdateBounds(report.Bounds)

	case TypePresenceUpdate:
		h.handlePresenceUpdate(room, sender, msg)

	default:
		slog.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
	}
}

func (h *Hub) handlePresenceUpdate(room *Room, sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName
	room.presence.Update(sender.UserID, &presence)

	outPayload, _ := json.Marshal(presence)
	room.broadcast(&Message{
		Type:    TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}, sender.ClientID)
}

// saveRoom persists the room's document if anything changed since the
// last snapshot.
func (h *Hub) saveRoom(ctx context.Context, room *Room) {
	if !room.dirty.Swap(false) {
		return
	}
	doc := room.editor.SaveDocument()
	if err := h.saver(ctx, room.mapID, doc); err != nil {
		slog.Error("save map snapshot", "map", room.mapID, "error", err)
		room.dirty.Store(true)
		return
	}
	slog.Info("map snapshot saved", "map", room.mapID, "objects", len(doc.Assets))
}

// saveAll flushes every open room; called on shutdown.
func (h *Hub) saveAll() {
	h.mu.Lock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.rooms = make(map[string]*Room)
	h.mu.Unlock()

	ctx := context.Background()
	for _, r := range rooms {
		h.saveRoom(ctx, r)
	}
}
