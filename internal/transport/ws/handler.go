package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"round1/internal/model"
	"round1/internal/service"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20 // base64 webcam snapshots
	messageTimeout = 15 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler handles WebSocket connections
type Handler struct {
	hub          *Hub
	authSvc      *service.AuthService
	interviewSvc *service.InterviewService
	behaviorSvc  *service.BehaviorService
	log          *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, authSvc *service.AuthService, interviewSvc *service.InterviewService, behaviorSvc *service.BehaviorService, log *zap.Logger) *Handler {
	return &Handler{
		hub:          hub,
		authSvc:      authSvc,
		interviewSvc: interviewSvc,
		behaviorSvc:  behaviorSvc,
		log:          log.Named("ws"),
	}
}

// RecruiterWS handles GET /v1/ws/interviews/{id}/recruiter
func (h *Handler) RecruiterWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateRecruiterToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if _, err := h.interviewSvc.Get(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			http.Error(w, "interview not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load interview", http.StatusInternalServerError)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	conn := &Connection{
		SessionID: id,
		Send:      make(chan []byte, 256),
		Hub:       h.hub,
	}
	h.hub.Register(conn)

	h.log.Debug("recruiter watching interview", zap.String("recruiterId", claims.RecruiterID), zap.String("sessionId", id))

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

// CandidateWS handles GET /v1/ws/interviews/{id}/candidate
func (h *Handler) CandidateWS(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	token := r.URL.Query().Get("token")

	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.authSvc.ValidateCandidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if claims.SessionID != id {
		http.Error(w, "token not valid for this interview", http.StatusForbidden)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("upgrade failed", zap.Error(err))
		return
	}

	conn := &Connection{
		SessionID:   id,
		IsCandidate: true,
		Send:        make(chan []byte, 256),
		Hub:         h.hub,
	}
	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("websocket read error", zap.String("sessionId", conn.SessionID), zap.Error(err))
			}
			break
		}
		// Recruiter connections are receive-only
		if !conn.IsCandidate {
			continue
		}
		if err := h.handleCandidateMessage(conn.SessionID, data); err != nil {
			h.hub.BroadcastToCandidate(conn.SessionID, string(MsgError), map[string]string{"error": err.Error()})
		}
	}
}

// handleCandidateMessage feeds frames and snapshots into the behavior pipeline
func (h *Handler) handleCandidateMessage(sessionID string, data []byte) error {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return errors.New("invalid message")
	}

	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()

	switch msg.Type {
	case MsgFrames:
		var p model.FrameBatch
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return errors.New("invalid frames payload")
		}
		_, err := h.behaviorSvc.IngestFrames(ctx, sessionID, p.Frames)
		return err

	case MsgSnapshot:
		image, ts, err := decodeSnapshot(msg.Payload)
		if err != nil {
			return err
		}
		_, err = h.behaviorSvc.Classify(ctx, sessionID, image, ts)
		if errors.Is(err, service.ErrThrottled) {
			return nil
		}
		return err
	}
	return errors.New("unknown message type: " + string(msg.Type))
}

func decodeSnapshot(raw json.RawMessage) ([]byte, int64, error) {
	var p model.SnapshotRequest
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, 0, errors.New("invalid snapshot payload")
	}
	image, err := p.DecodeImage()
	if err != nil {
		return nil, 0, err
	}
	return image, p.TimestampMS, nil
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
