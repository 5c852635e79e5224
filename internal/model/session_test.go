package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSession_Clone(t *testing.T) {
	orig := PresentSession(User{ID: "u-1", Email: "ana@example.com"})

	c := orig.Clone()
	c.User.IsAdmin = true
	c.User.DisplayName = "Ana"

	assert.False(t, orig.IsAdmin())
	assert.Empty(t, orig.User.DisplayName)
	assert.Equal(t, orig.State, c.State)

	absent := AbsentSession().Clone()
	assert.Nil(t, absent.User)
}
