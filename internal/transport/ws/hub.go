package ws

import (
	"encoding/json"

	"go.uber.org/zap"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Recruiter message types
const (
	MsgCandidateConnected MessageType = "candidate_connected"
	MsgCandidateLeft      MessageType = "candidate_left"
)

// Candidate message types (inbound)
const (
	MsgFrames   MessageType = "frames"
	MsgSnapshot MessageType = "snapshot"
)

// MsgError is sent to a client whose message could not be processed
const MsgError MessageType = "error"

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections per interview: any number of recruiter
// viewers and at most one candidate
type Hub struct {
	recruiterConns map[string]map[*Connection]struct{}
	candidateConns map[string]*Connection

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
	disconnect chan string
	done       chan struct{}

	log *zap.Logger
}

// Connection represents a WebSocket connection
type Connection struct {
	SessionID   string
	IsCandidate bool
	Send        chan []byte
	Hub         *Hub
}

// BroadcastMessage is a message to broadcast
type BroadcastMessage struct {
	SessionID   string
	ToCandidate bool
	Message     *Message
}

// NewHub creates a new WebSocket hub and starts its event loop
func NewHub(log *zap.Logger) *Hub {
	h := &Hub{
		recruiterConns: make(map[string]map[*Connection]struct{}),
		candidateConns: make(map[string]*Connection),
		register:       make(chan *Connection),
		unregister:     make(chan *Connection),
		broadcast:      make(chan *BroadcastMessage, 256),
		disconnect:     make(chan string),
		done:           make(chan struct{}),
		log:            log.Named("ws"),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			if conn.IsCandidate {
				if old, ok := h.candidateConns[conn.SessionID]; ok {
					close(old.Send)
				}
				h.candidateConns[conn.SessionID] = conn
				h.log.Info("candidate connected", zap.String("sessionId", conn.SessionID))
				h.notifyRecruiters(conn.SessionID, MsgCandidateConnected)
			} else {
				if h.recruiterConns[conn.SessionID] == nil {
					h.recruiterConns[conn.SessionID] = make(map[*Connection]struct{})
				}
				h.recruiterConns[conn.SessionID][conn] = struct{}{}
				h.log.Info("recruiter connected", zap.String("sessionId", conn.SessionID))
			}

		case conn := <-h.unregister:
			h.remove(conn)

		case sessionID := <-h.disconnect:
			if conn, ok := h.candidateConns[sessionID]; ok {
				h.remove(conn)
			}
			for conn := range h.recruiterConns[sessionID] {
				h.remove(conn)
			}

		case msg := <-h.broadcast:
			data, err := json.Marshal(msg.Message)
			if err != nil {
				h.log.Error("failed to encode message", zap.Error(err))
				continue
			}

			if msg.ToCandidate {
				if conn, ok := h.candidateConns[msg.SessionID]; ok {
					trySend(conn, data)
				}
				continue
			}
			for conn := range h.recruiterConns[msg.SessionID] {
				trySend(conn, data)
			}

		case <-h.done:
			return
		}
	}
}

// remove drops conn if it is still registered and closes its send channel
func (h *Hub) remove(conn *Connection) {
	if conn.IsCandidate {
		if existing, ok := h.candidateConns[conn.SessionID]; ok && existing == conn {
			delete(h.candidateConns, conn.SessionID)
			close(conn.Send)
			h.log.Info("candidate disconnected", zap.String("sessionId", conn.SessionID))
			h.notifyRecruiters(conn.SessionID, MsgCandidateLeft)
		}
		return
	}

	conns, ok := h.recruiterConns[conn.SessionID]
	if !ok {
		return
	}
	if _, ok := conns[conn]; ok {
		delete(conns, conn)
		close(conn.Send)
		if len(conns) == 0 {
			delete(h.recruiterConns, conn.SessionID)
		}
		h.log.Info("recruiter disconnected", zap.String("sessionId", conn.SessionID))
	}
}

// Drop message if buffer full
func trySend(conn *Connection, data []byte) {
	select {
	case conn.Send <- data:
	default:
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
	}
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Stop ends the event loop
func (h *Hub) Stop() {
	close(h.done)
}

// BroadcastToRecruiters sends a message to everyone watching the interview (implements service.Broadcaster)
func (h *Hub) BroadcastToRecruiters(sessionID string, msgType string, payload interface{}) {
	h.send(sessionID, false, MessageType(msgType), payload)
}

// BroadcastToCandidate sends a message to the candidate (implements service.Broadcaster)
func (h *Hub) BroadcastToCandidate(sessionID string, msgType string, payload interface{}) {
	h.send(sessionID, true, MessageType(msgType), payload)
}

// DisconnectSession closes every connection of an interview (implements service.Broadcaster)
func (h *Hub) DisconnectSession(sessionID string) {
	select {
	case h.disconnect <- sessionID:
	case <-h.done:
	}
}

func (h *Hub) send(sessionID string, toCandidate bool, msgType MessageType, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("failed to encode payload", zap.String("type", string(msgType)), zap.Error(err))
		return
	}
	msg := &BroadcastMessage{
		SessionID:   sessionID,
		ToCandidate: toCandidate,
		Message:     &Message{Type: msgType, Payload: data},
	}
	select {
	case h.broadcast <- msg:
	case <-h.done:
	}
}

func (h *Hub) notifyRecruiters(sessionID string, msgType MessageType) {
	data, _ := json.Marshal(&Message{
		Type:    msgType,
		Payload: json.RawMessage(`{"sessionId":"` + sessionID + `"}`),
	})
	for conn := range h.recruiterConns[sessionID] {
		trySend(conn, data)
	}
}
