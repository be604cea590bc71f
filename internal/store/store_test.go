package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagesignal/event-cli/internal/config"
)

func TestOpen_SQLiteDefault(t *testing.T) {
	kv, err := Open(context.Background(), config.StoreConfig{
		DatabaseURL: filepath.Join(t.TempDir(), "open.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })

	require.NoError(t, kv.Upsert(context.Background(), "k", []byte(`v`), 0))
	got, ok, err := kv.Get(context.Background(), "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte(`v`), got)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "dynamo"})
	assert.Error(t, err)
}
