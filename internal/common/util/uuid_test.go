package util

import (
	"testing"

	"github.com/oklog/ulid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewULID_Ordered(t *testing.T) {
	first := NewULID()
	second := NewULID()
	assert.Len(t, first, 26)
	assert.Less(t, first, second)

	_, err := ulid.ParseStrict(first)
	require.NoError(t, err)
}
