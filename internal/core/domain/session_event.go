package domain

import "time"

// SessionEventType names a session lifecycle transition recorded in the audit trail.
type SessionEventType string

const (
	EventLogin    SessionEventType = "login"
	EventRefresh  SessionEventType = "refresh"
	EventLogout   SessionEventType = "logout"
	EventRegister SessionEventType = "register"
	EventDisable  SessionEventType = "disable"
	EventEnable   SessionEventType = "enable"
)

// SessionEvent is an audit record. It never carries secrets.
type SessionEvent struct {
	Type      SessionEventType `json:"type" bson:"type"`
	Kind      ActorKind        `json:"actor_kind" bson:"actor_kind"`
	ActorID   string           `json:"actor_id,omitempty" bson:"actor_id,omitempty"`
	Email     string           `json:"email,omitempty" bson:"email,omitempty"`
	Success   bool             `json:"success" bson:"success"`
	Reason    string           `json:"reason,omitempty" bson:"reason,omitempty"`
	Timestamp time.Time        `json:"timestamp" bson:"timestamp"`
}

// ShardKey groups events that must be recorded in order.
func (e SessionEvent) ShardKey() string {
	if e.ActorID != "" {
		return string(e.Kind) + ":" + e.ActorID
	}
	return string(e.Kind) + ":" + e.Email
}
