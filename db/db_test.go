package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDBType(t *testing.T) {
	for _, v := range []string{"postgres", "mongo", "memory"} {
		got, err := ParseDBType(v)
		require.NoError(t, err)
		assert.Equal(t, DBType(v), got)
	}

	_, err := ParseDBType("mysql")
	assert.Error(t, err)
	_, err = ParseDBType("")
	assert.Error(t, err)
}
