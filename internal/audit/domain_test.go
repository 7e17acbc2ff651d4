package audit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/permradar/permradar/internal/rbac"
)

func TestDecodeDetailsDispatchesOnAction(t *testing.T) {
	raw := []byte(`{"impactedUsers":[{"user_id":1,"user_name":"Alice","role":"admin"}]}`)
	details, err := DecodeDetails(ActionPermissionRemoved, raw)
	require.NoError(t, err)

	removed, ok := details.(PermissionRemovedDetails)
	require.True(t, ok)
	require.Len(t, removed.ImpactedUsers, 1)
	assert.Equal(t, rbac.ImpactedUser{UserID: 1, UserName: "Alice", Role: "admin"}, removed.ImpactedUsers[0])

	details, err = DecodeDetails(ActionUserRoleChanged, []byte(`{"userId":2,"userName":"Bob","previousRole":"viewer"}`))
	require.NoError(t, err)
	changed, ok := details.(UserRoleChangedDetails)
	require.True(t, ok)
	assert.Equal(t, "viewer", changed.PreviousRole)
}

func TestDecodeDetailsUnknownActionFails(t *testing.T) {
	_, err := DecodeDetails(Action("password_rotated"), []byte(`{}`))
	assert.Error(t, err)
}

func TestDecodeDetailsEmptyPayload(t *testing.T) {
	details, err := DecodeDetails(ActionPermissionRestored, nil)
	require.NoError(t, err)
	restored, ok := details.(PermissionRestoredDetails)
	require.True(t, ok)
	assert.Zero(t, restored.RestoredFromAudit)
}

func TestDetailsSerializeWithStableKeys(t *testing.T) {
	payload, err := json.Marshal(PermissionRemovedDetails{
		ImpactedUsers: []rbac.ImpactedUser{{UserID: 1, UserName: "Alice", Role: "admin"}},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"impactedUsers":[{"user_id":1,"user_name":"Alice","role":"admin"}]}`, string(payload))

	// What one variant writes, the decoder for that action reads back.
	details, err := DecodeDetails(ActionPermissionRemoved, payload)
	require.NoError(t, err)
	assert.Equal(t, ActionPermissionRemoved, details.Action())
}
