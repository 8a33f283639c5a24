package models

// Conversation is created lazily, at most once per (talent, business) pair,
// after the pair's connection is accepted. It is never deleted when the
// connection is discontinued; history stays readable and only writes are
// gated.
type Conversation struct {
	PK         string `dynamodbav:"PK" json:"-"` // "TALENT#<talentId>"
	SK         string `dynamodbav:"SK" json:"-"` // "BUSINESS#<businessId>"
	ID         string `dynamodbav:"conversationId" json:"conversationId"`
	TalentID   string `dynamodbav:"talentId" json:"talentId"`
	BusinessID string `dynamodbav:"businessId" json:"businessId"`
	CreatedAt  string `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt  string `dynamodbav:"updatedAt" json:"updatedAt"`
}

// Message is immutable once written. CreatedAt is the sort key, written as a
// fixed-width nanosecond UTC timestamp so lexicographic order is time order
// and display order is stable.
type Message struct {
	ConversationID string `dynamodbav:"conversationId" json:"conversationId"`
	CreatedAt      string `dynamodbav:"createdAt" json:"createdAt"`
	MessageID      string `dynamodbav:"messageId" json:"messageId"`
	SenderType     Role   `dynamodbav:"senderType" json:"senderType"`
	Body           string `dynamodbav:"body" json:"body"`
}

// ConversationSummary is the dashboard view of a conversation: the
// counterparty's display name (best-effort, may be empty) and the latest
// message if any.
type ConversationSummary struct {
	Conversation Conversation `json:"conversation"`
	DisplayName  string       `json:"displayName,omitempty"`
	Latest       *Message     `json:"latestMessage,omitempty"`
}

const ConversationsTable = "Conversations"

// ConversationIDIndex is the GSI used to look a conversation up by its id.
const ConversationIDIndex = "conversationId-index"

const MessagesTable = "Messages"
