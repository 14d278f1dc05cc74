package domain_test

import (
	"testing"
	"time"

	"github.com/aretw0/muster/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestSession_OptInOut(t *testing.T) {
	s := domain.NewSession(domain.Invocation{Scope: "g1", ChannelID: "c1", UserID: "u1"}, time.Now())

	assert.True(t, s.AddOptIn("u2"))
	assert.False(t, s.AddOptIn("u2"), "second opt-in must be rejected")
	assert.Equal(t, []string{"u2"}, s.OptedIn)

	s.RemoveOptIn("u2")
	s.AddOptOut("u2")
	s.AddOptOut("u2")
	assert.Empty(t, s.OptedIn)
	assert.Equal(t, []string{"u2"}, s.OptedOut)
}

func TestSession_Clone(t *testing.T) {
	s := domain.NewSession(domain.Invocation{Scope: "g1", UserID: "u1"}, time.Now())
	s.AddOptIn("u2")

	c := s.Clone()
	c.AddOptIn("u3")

	assert.Equal(t, []string{"u2"}, s.OptedIn, "clone must not share backing arrays")
	assert.True(t, c.IsInitiator("u1"))
	assert.False(t, c.IsInitiator(""))
}
