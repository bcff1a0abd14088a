package handlers

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate_SQLite(t *testing.T) {
	t.Parallel()
	var out bytes.Buffer
	require.NoError(t, Migrate(context.Background(), &out, writeConfig(t, "")))
	assert.Contains(t, out.String(), "Schema is up to date (sqlite")
}

func TestMigrate_Memory(t *testing.T) {
	t.Setenv("HELMSYNC_STORE_DRIVER", "memory")
	var out bytes.Buffer
	require.NoError(t, Migrate(context.Background(), &out, writeConfig(t, "")))
	assert.Contains(t, out.String(), "no schema to migrate")
}
