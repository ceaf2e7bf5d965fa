// Package discord implements the interactions webhook contract: envelope
// parsing, request signature verification, response shaping, and the REST
// client used for callbacks and direct messages.
package discord

import (
	"encoding/json"
	"fmt"
)

// InteractionType discriminates inbound envelope shapes.
type InteractionType int

const (
	// InteractionPing is the platform's connectivity check.
	InteractionPing InteractionType = 1
	// InteractionApplicationCommand is a slash command invocation.
	InteractionApplicationCommand InteractionType = 2
)

// Interaction is the inbound envelope, parsed fresh per request and never
// persisted.
type Interaction struct {
	Type   InteractionType `json:"type"`
	ID     string          `json:"id"`
	Token  string          `json:"token"`
	Member *Member         `json:"member,omitempty"`
	Data   *CommandData    `json:"data,omitempty"`
}

// Member identifies the guild member who invoked the command.
type Member struct {
	User User `json:"user"`
}

// User is the invoking platform user.
type User struct {
	ID string `json:"id"`
}

// CommandData carries the command name and its option values.
type CommandData struct {
	Name    string   `json:"name"`
	Options []Option `json:"options,omitempty"`
}

// Option is one name/value pair from the command invocation.
type Option struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// StringValue returns the option value as a string.
func (o Option) StringValue() (string, bool) {
	s, ok := o.Value.(string)
	return s, ok
}

// UserID returns the invoking user's ID, or empty when the envelope does
// not carry member information.
func (i Interaction) UserID() string {
	if i.Member == nil {
		return ""
	}
	return i.Member.User.ID
}

// FirstOption returns the first option value as a string, mirroring how
// single-argument commands address data.options[0].value.
func (i Interaction) FirstOption() (string, bool) {
	if i.Data == nil || len(i.Data.Options) == 0 {
		return "", false
	}
	return i.Data.Options[0].StringValue()
}

// ParseInteraction decodes a raw, already-verified body into an envelope.
func ParseInteraction(body []byte) (Interaction, error) {
	var interaction Interaction
	if err := json.Unmarshal(body, &interaction); err != nil {
		return Interaction{}, fmt.Errorf("decode interaction: %w", err)
	}
	return interaction, nil
}
