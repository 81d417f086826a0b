package amqp

import (
	"encoding/json"
	"time"
)

// Notification event names double as human-readable routing hints for the
// worker; all events travel over the single notifications queue.
const (
	EventInvitationCreated = "invitation.created"
	EventExpenseReviewed   = "expense.reviewed"
)

// NotificationMessage is the envelope published for the e-mail worker. It
// carries everything needed to render the notification so the worker does
// not have to read the database.
type NotificationMessage struct {
	Event        string    `json:"event"`
	Recipient    string    `json:"recipient"`
	GroupID      string    `json:"group_id"`
	GroupName    string    `json:"group_name"`
	Actor        string    `json:"actor"`
	InvitationID string    `json:"invitation_id,omitempty"`
	ExpenseTitle string    `json:"expense_title,omitempty"`
	Amount       string    `json:"amount,omitempty"`
	Status       string    `json:"status,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// NewInvitationMessage builds the notification sent when a user is invited
// to a savings group.
func NewInvitationMessage(recipient, groupID, groupName, invitedBy, invitationID string) *NotificationMessage {
	return &NotificationMessage{
		Event:        EventInvitationCreated,
		Recipient:    recipient,
		GroupID:      groupID,
		GroupName:    groupName,
		Actor:        invitedBy,
		InvitationID: invitationID,
		Timestamp:    time.Now(),
	}
}

// NewExpenseReviewedMessage builds the notification sent to the submitter
// when an admin decides a group expense.
func NewExpenseReviewedMessage(recipient, groupID, groupName, reviewer, title, amount, status string) *NotificationMessage {
	return &NotificationMessage{
		Event:        EventExpenseReviewed,
		Recipient:    recipient,
		GroupID:      groupID,
		GroupName:    groupName,
		Actor:        reviewer,
		ExpenseTitle: title,
		Amount:       amount,
		Status:       status,
		Timestamp:    time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *NotificationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// NotificationMessageFromJSON creates a message from JSON bytes
func NotificationMessageFromJSON(data []byte) (*NotificationMessage, error) {
	var msg NotificationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
