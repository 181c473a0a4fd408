package xcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type key struct{}

func TestDetach(t *testing.T) {
	parent, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "value"))
	cancel()
	require.Error(t, parent.Err())

	ctx := Detach(parent)
	require.NoError(t, ctx.Err())
	require.Nil(t, ctx.Done())
	require.Equal(t, "value", ctx.Value(key{}))
}
