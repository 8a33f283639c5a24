package models

// Notification intent types emitted by the lifecycle engine. Delivery is an
// external concern; the engine only emits.
const (
	NotifyConnectionRequested = "connection_requested"
	NotifyReconnectRequested  = "reconnect_requested"
	NotifyReconnectAccepted   = "reconnect_accepted"
)

// NotificationIntent is handed to the dispatcher fire-and-forget. A failed
// dispatch never fails the transition that produced it.
type NotificationIntent struct {
	Type                string `json:"type"`
	ConnectionRequestID string `json:"connectionRequestId"`
	TalentID            string `json:"talentId"`
	BusinessID          string `json:"businessId"`
	Message             string `json:"message,omitempty"`
}
