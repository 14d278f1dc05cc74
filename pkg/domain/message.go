package domain

import "fmt"

// Message is a reply produced by an operation.
type Message struct {
	Content string `json:"content"`

	// Mentions allows user mentions in Content to notify the mentioned users.
	Mentions bool `json:"mentions,omitempty"`

	// Ephemeral replies are only visible to the invoking user.
	Ephemeral bool `json:"ephemeral,omitempty"`
}

// Channel is a chat channel as seen by the coordinator.
type Channel struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Mention string `json:"mention"`
}

// AccessList is the audience of a private channel. Everybody not listed is denied.
type AccessList struct {
	Scope   string   `json:"scope"`
	Members []string `json:"members"`
}

// ChannelSpec describes a private channel to be created.
type ChannelSpec struct {
	Scope      string
	Name       string
	CategoryID string
	Access     AccessList
}

// MentionUser renders the platform mention markup for a user ID.
func MentionUser(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}

// MentionChannel renders the platform mention markup for a channel ID.
func MentionChannel(channelID string) string {
	return fmt.Sprintf("<#%s>", channelID)
}
