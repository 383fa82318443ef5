package realtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannel(t *testing.T) {
	id := uuid.New()

	prefix, got, err := parseChannel(UserChannel(id))
	require.NoError(t, err)
	assert.Equal(t, userPrefix, prefix)
	assert.Equal(t, id, got)

	prefix, got, err = parseChannel(ProjectChannel(id))
	require.NoError(t, err)
	assert.Equal(t, projectPrefix, prefix)
	assert.Equal(t, id, got)

	for _, bad := range []string{"", "user:", "project:not-a-uuid", "org:" + id.String()} {
		_, _, err := parseChannel(bad)
		assert.ErrorIs(t, err, ErrInvalidChannel, bad)
	}
}
