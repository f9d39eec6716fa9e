package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, ok := ParseRole("admin")
	assert.True(t, ok)
	assert.Equal(t, RoleAdmin, r)

	r, ok = ParseRole(" USER ")
	assert.True(t, ok)
	assert.Equal(t, RoleUser, r)

	_, ok = ParseRole("superuser")
	assert.False(t, ok)
	_, ok = ParseRole("")
	assert.False(t, ok)
}

func TestUserJSONOmitsPasswordHash(t *testing.T) {
	u := User{ID: "u-1", Name: "Ann", Email: "ann@x.com", Role: RoleUser, PasswordHash: "$2a$10$secret"}

	raw, err := json.Marshal(u)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "password")
	assert.NotContains(t, fields, "PasswordHash")
	assert.NotContains(t, string(raw), "$2a$10$secret")
	assert.Equal(t, "ann@x.com", fields["email"])
}
