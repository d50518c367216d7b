package correlation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromContextEmpty(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)
}

func TestWithIDRoundTrip(t *testing.T) {
	ctx := WithID(context.Background(), "corr-123")

	id, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "corr-123", id)
}

func TestEnsureGeneratesWhenMissing(t *testing.T) {
	ctx, id := Ensure(context.Background())
	require.NotEmpty(t, id)

	stored, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, id, stored)
}

func TestEnsureKeepsExistingID(t *testing.T) {
	ctx := WithID(context.Background(), "corr-456")

	same, id := Ensure(ctx)
	require.Equal(t, "corr-456", id)
	require.Equal(t, ctx, same)
}
