package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDFromCallback(t *testing.T) {
	id, err := ParseIDFromCallback("meeting_join:17")
	require.NoError(t, err)
	assert.Equal(t, int64(17), id)

	for _, data := range []string{"meeting_join", "meeting_join:", "meeting_join:abc", "meeting_join:1:2", "meeting_join:-3"} {
		_, err := ParseIDFromCallback(data)
		assert.ErrorIs(t, err, ErrInvalidFormat, data)
	}
}
