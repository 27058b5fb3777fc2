package cache_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/envhttp/internal/testsupport/redisstub"
	"github.com/shashiranjanraj/envhttp/pkg/cache"
)

func TestConnectAddr(t *testing.T) {
	srv, err := redisstub.Start()
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	require.NoError(t, cache.ConnectAddr(context.Background(), srv.Addr(), ""))
	assert.NotNil(t, cache.RDB)
	assert.NoError(t, cache.Close())
	assert.Nil(t, cache.RDB)
}

func TestConnectAddr_Unreachable(t *testing.T) {
	srv, err := redisstub.Start()
	require.NoError(t, err)
	addr := srv.Addr()
	require.NoError(t, srv.Close())

	err = cache.ConnectAddr(context.Background(), addr, "")
	assert.Error(t, err)
	assert.Nil(t, cache.RDB)
	assert.NoError(t, cache.Close())
}
