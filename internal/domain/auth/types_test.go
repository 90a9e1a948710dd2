package auth

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	r, err := ParseRole("")
	require.NoError(t, err)
	assert.Equal(t, RoleUser, r)

	r, err = ParseRole(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, r)

	_, err = ParseRole("superuser")
	require.Error(t, err)
}

func TestRole_UnmarshalJSON(t *testing.T) {
	var body struct {
		Role Role `json:"role"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"role":"user"}`), &body))
	assert.Equal(t, RoleUser, body.Role)

	require.Error(t, json.Unmarshal([]byte(`{"role":"owner"}`), &body))
}

func TestCredential_Empty(t *testing.T) {
	assert.True(t, Credential{}.Empty())
	assert.True(t, Credential{Salt: "ab"}.Empty())
	assert.True(t, Credential{Hash: "cd"}.Empty())
	assert.False(t, Credential{Salt: "ab", Hash: "cd"}.Empty())
}
