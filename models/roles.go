package models

import "fmt"

// Role identifies which side of the marketplace an actor belongs to.
type Role string

const (
	RoleTalent   Role = "talent"
	RoleBusiness Role = "business"
)

// Counterpart returns the opposite side of the pair.
func (r Role) Counterpart() Role {
	if r == RoleTalent {
		return RoleBusiness
	}
	return RoleTalent
}

// ParseRole validates a caller-supplied role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleTalent, RoleBusiness:
		return Role(s), nil
	}
	return "", fmt.Errorf("invalid role: %q", s)
}

// ConnectionStatus is the authoritative lifecycle state of a connection request.
type ConnectionStatus string

const (
	StatusPending      ConnectionStatus = "pending"
	StatusAccepted     ConnectionStatus = "accepted"
	StatusDeclined     ConnectionStatus = "declined"
	StatusDiscontinued ConnectionStatus = "discontinued"
)

// Decision is the counterparty's answer to a pending request or reconnection.
type Decision string

const (
	DecisionAccept  Decision = "accept"
	DecisionDecline Decision = "decline"
)

// ParseDecision validates a caller-supplied decision string.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionAccept, DecisionDecline:
		return Decision(s), nil
	}
	return "", fmt.Errorf("invalid decision: %q", s)
}
