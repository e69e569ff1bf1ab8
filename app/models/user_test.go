package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUser(t *testing.T) {
	u, err := NewUser(1, "  Owner@Example.COM ", "Owner User", "s3cret-pass", ROLE_OWNER)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, "owner@example.com", u.Email)
	assert.True(t, u.IsOwner())
	assert.True(t, u.CheckPassword("s3cret-pass"))
	assert.False(t, u.CheckPassword("wrong"))

	member, err := NewUser(1, "member@example.com", "Member", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assert.Equal(t, ROLE_MEMBER, member.Role)
	assert.False(t, member.CheckPassword(""))

	_, err = NewUser(1, "not-an-email", "Someone", "", "")
	assert.Error(t, err)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.io", NormalizeEmail("  A@B.io "))
}
