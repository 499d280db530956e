package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// UserSummary is the subset of a user embedded in conversation participants.
type UserSummary struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
}

// DisplayName returns the full name, the email or "there", in that order.
func (u UserSummary) DisplayName() string {
	if n := strings.TrimSpace(u.FullName); n != "" {
		return n
	}
	if e := strings.TrimSpace(u.Email); e != "" {
		return e
	}
	return "there"
}

// ParticipantRef references a conversation participant either by bare id or
// by an embedded user summary. The zero value references nobody.
type ParticipantRef struct {
	id   string
	user *UserSummary
}

// ParticipantID returns a reference that carries only an id.
func ParticipantID(id string) ParticipantRef {
	return ParticipantRef{id: id}
}

// EmbeddedParticipant returns a reference carrying the full summary.
func EmbeddedParticipant(u UserSummary) ParticipantRef {
	return ParticipantRef{user: &u}
}

// ID returns the referenced user id.
func (p ParticipantRef) ID() string {
	if p.user != nil {
		return p.user.ID
	}
	return p.id
}

// Embedded returns the summary and true when the reference carries one.
func (p ParticipantRef) Embedded() (UserSummary, bool) {
	if p.user == nil {
		return UserSummary{}, false
	}
	return *p.user, true
}

// IsZero reports whether the reference points at nobody.
func (p ParticipantRef) IsZero() bool {
	return p.user == nil && p.id == ""
}

// MarshalJSON encodes an id reference as a JSON string and an embedded one as
// an object.
func (p ParticipantRef) MarshalJSON() ([]byte, error) {
	if p.user != nil {
		return json.Marshal(p.user)
	}
	return json.Marshal(p.id)
}

// UnmarshalJSON accepts either a string id or an embedded user object.
func (p *ParticipantRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = ParticipantRef{}
		return nil
	}
	if data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("decoding participant id: %w", err)
		}
		*p = ParticipantID(id)
		return nil
	}
	var u UserSummary
	if err := json.Unmarshal(data, &u); err != nil {
		return fmt.Errorf("decoding participant: %w", err)
	}
	*p = EmbeddedParticipant(u)
	return nil
}

// ConversationMessage is one message appended to a conversation.
type ConversationMessage struct {
	ID        string    `json:"id,omitempty"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Conversation is the read-only context used to notify the other participant
// of a new message.
type Conversation struct {
	ID       string                `json:"id"`
	Listing  Listing               `json:"listing"`
	Agent    ParticipantRef        `json:"agent"`
	Buyer    ParticipantRef        `json:"buyer"`
	Messages []ConversationMessage `json:"messages,omitempty"`
}
