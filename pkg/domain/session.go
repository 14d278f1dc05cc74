package domain

import (
	"slices"
	"time"
)

// DefaultMaxPlayers is the opt-in capacity used when none is configured.
const DefaultMaxPlayers = 5

// Session captures the state of a single coordination scope.
// Fields other than Active are only meaningful while Active is true (or, after
// Finalize, as a record of the last game until the next Start).
type Session struct {
	Active      bool      `json:"active"`
	Scope       string    `json:"scope"`
	ChannelID   string    `json:"channel_id"`
	InitiatorID string    `json:"initiator_id"`
	StartedAt   time.Time `json:"started_at"`

	// OptedIn keeps insertion order so mentions render in the order players joined.
	OptedIn  []string `json:"opted_in"`
	OptedOut []string `json:"opted_out"`

	GameID    string `json:"game_id,omitempty"`
	Continent string `json:"continent,omitempty"`
	Codename  string `json:"codename,omitempty"`

	// GameChannelID is set once the private channel exists. A Finalize retried after a
	// partial failure reuses it instead of creating a second channel.
	GameChannelID   string `json:"game_channel_id,omitempty"`
	GameChannelName string `json:"game_channel_name,omitempty"`
}

// NewSession returns a freshly reset, active session.
func NewSession(inv Invocation, now time.Time) *Session {
	return &Session{
		Active:      true,
		Scope:       inv.Scope,
		ChannelID:   inv.ChannelID,
		InitiatorID: inv.UserID,
		StartedAt:   now,
		OptedIn:     []string{},
		OptedOut:    []string{},
	}
}

// IsInitiator reports whether userID started the session.
func (s *Session) IsInitiator(userID string) bool {
	return s.InitiatorID != "" && s.InitiatorID == userID
}

// HasOptedIn reports whether userID is currently in the opt-in set.
func (s *Session) HasOptedIn(userID string) bool {
	return slices.Contains(s.OptedIn, userID)
}

// AddOptIn adds userID to the opt-in set. It returns false if already present.
func (s *Session) AddOptIn(userID string) bool {
	if s.HasOptedIn(userID) {
		return false
	}
	s.OptedIn = append(s.OptedIn, userID)
	return true
}

// RemoveOptIn drops userID from the opt-in set, if present.
func (s *Session) RemoveOptIn(userID string) {
	s.OptedIn = slices.DeleteFunc(s.OptedIn, func(id string) bool { return id == userID })
}

// AddOptOut records userID in the opt-out set.
func (s *Session) AddOptOut(userID string) {
	if !slices.Contains(s.OptedOut, userID) {
		s.OptedOut = append(s.OptedOut, userID)
	}
}

// Clone returns a deep copy so callers cannot mutate stored state by pointer.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.OptedIn = slices.Clone(s.OptedIn)
	c.OptedOut = slices.Clone(s.OptedOut)
	return &c
}

// Invocation identifies who invoked a command and where.
type Invocation struct {
	// Scope is the guild (server) the command was issued in.
	Scope     string `json:"scope" mapstructure:"scope"`
	ChannelID string `json:"channel_id" mapstructure:"channel_id"`
	UserID    string `json:"user_id" mapstructure:"user_id"`
}
