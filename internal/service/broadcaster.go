package service

// Broadcaster pushes live interview events over WebSocket (implemented by ws.Hub, avoids import cycle)
type Broadcaster interface {
	BroadcastToRecruiters(sessionID string, msgType string, payload interface{})
	BroadcastToCandidate(sessionID string, msgType string, payload interface{})
	DisconnectSession(sessionID string)
}

// Event types pushed to clients
const (
	EventSignalsUpdate      = "signals_update"
	EventAnalyticsUpdate    = "analytics_update"
	EventTranscriptUpdate   = "transcript_update"
	EventNextQuestion       = "next_question"
	EventInterviewCompleted = "interview_completed"
	EventError              = "error"
)
