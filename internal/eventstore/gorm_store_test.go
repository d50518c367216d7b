package eventstore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestAppendSerializationErrorIsFatal(t *testing.T) {
	store := NewGormStore(nil)

	// A channel cannot be marshaled; the append must fail before touching
	// storage rather than persisting a corrupt entry.
	_, err := store.Append(context.Background(), "APT01", "appointment.created", make(chan int), AppendOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "marshal")
}

func TestAppendMetadataSerializationErrorIsFatal(t *testing.T) {
	store := NewGormStore(nil)

	_, err := store.Append(context.Background(), "APT01", "appointment.created", map[string]string{"status": "SCHEDULED"}, AppendOptions{
		Metadata: make(chan int),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "metadata")
}

func TestNextVersion(t *testing.T) {
	// A fresh aggregate starts at version 1.
	next, err := nextVersion(0, sql.ErrNoRows)
	require.NoError(t, err)
	require.Equal(t, 1, next)

	// An existing aggregate advances monotonically.
	next, err = nextVersion(4, nil)
	require.NoError(t, err)
	require.Equal(t, 5, next)

	// A real read failure aborts the append instead of restarting at 1.
	_, err = nextVersion(0, errors.New("connection reset"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "current aggregate version")
}
