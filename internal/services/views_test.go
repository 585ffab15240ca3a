package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlushViews(t *testing.T) {
	counter := &fakeViewCounter{}
	repo := newFakeMemorialRepo()
	svc := NewViewFlushService(counter, repo, discardLogger(), time.Second)

	for i := 0; i < 3; i++ {
		require.NoError(t, counter.Record(context.Background(), "mem-1"))
	}
	require.NoError(t, counter.Record(context.Background(), "mem-2"))

	res, err := svc.FlushViews(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Memorials)
	assert.Equal(t, int64(4), res.Views)
	assert.Equal(t, int64(3), repo.viewsAdded["mem-1"])
	assert.Equal(t, int64(1), repo.viewsAdded["mem-2"])

	// A second flush finds nothing.
	res, err = svc.FlushViews(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Memorials)
}
