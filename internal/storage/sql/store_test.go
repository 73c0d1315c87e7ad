package sql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_UnsupportedDriver(t *testing.T) {
	store, err := NewStore("sqlite", "file::memory:", 1, 1, time.Minute)
	require.Error(t, err)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestPlaceholder(t *testing.T) {
	assert.Equal(t, "$1", (&Store{driverName: "postgres"}).placeholder(1))
	assert.Equal(t, "?", (&Store{driverName: "mysql"}).placeholder(1))
}
