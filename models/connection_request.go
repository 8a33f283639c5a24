package models

// ConnectionRequest is the single authoritative row for a (talent, business)
// pair. The pair itself is the table key, so at most one row can exist per
// pair; reconnection cycles mutate this row in place, which is what preserves
// CreatedAt and conversation history across discontinue/reconnect.
type ConnectionRequest struct {
	PK                   string           `dynamodbav:"PK" json:"-"` // "TALENT#<talentId>"
	SK                   string           `dynamodbav:"SK" json:"-"` // "BUSINESS#<businessId>"
	ID                   string           `dynamodbav:"requestId" json:"requestId"`
	TalentID             string           `dynamodbav:"talentId" json:"talentId"`
	BusinessID           string           `dynamodbav:"businessId" json:"businessId"`
	Status               ConnectionStatus `dynamodbav:"status" json:"status"`
	InitiatedBy          Role             `dynamodbav:"initiatedBy" json:"initiatedBy"`
	SelectedSections     []string         `dynamodbav:"selectedSections" json:"selectedSections"`
	ReconnectRequestedBy Role             `dynamodbav:"reconnectRequestedBy,omitempty" json:"reconnectRequestedBy,omitempty"`
	ReconnectMessage     string           `dynamodbav:"reconnectMessage,omitempty" json:"reconnectMessage,omitempty"`
	CreatedAt            string           `dynamodbav:"createdAt" json:"createdAt"`   // first cycle only, never reset
	RespondedAt          string           `dynamodbav:"respondedAt,omitempty" json:"respondedAt,omitempty"`
}

// ReconnectPending reports whether the row is in a reconnection cycle: pending
// again after a prior discontinuation, with provenance of who asked.
func (r *ConnectionRequest) ReconnectPending() bool {
	return r.Status == StatusPending && r.ReconnectRequestedBy != ""
}

// ConnectionRequestsTable is the DynamoDB table for connection requests.
const ConnectionRequestsTable = "ConnectionRequests"

// RequestIDIndex is the GSI used to look a row up by its requestId.
const RequestIDIndex = "requestId-index"

// BusinessIDIndex is the GSI, carried by both the connection and conversation
// tables, used to list rows by businessId.
const BusinessIDIndex = "businessId-index"

// TalentPK and BusinessSK build the pair key for connection and conversation rows.
func TalentPK(talentID string) string { return "TALENT#" + talentID }

func BusinessSK(businessID string) string { return "BUSINESS#" + businessID }
