package repository

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipts-extractor/internal/common"
)

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx := context.Background()
	s, err := OpenMongo(ctx, uri, "receipts_test_"+uuid.NewString()[:8], nil)
	require.NoError(t, err)
	defer func() {
		_ = s.coll.Database().Drop(ctx)
		_ = s.Close()
	}()

	require.NoError(t, s.Save(ctx, "m1", sampleReceipt(), true, ""))
	got, err := s.Get(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "MİGROS", *got.Receipt.BusinessName)
	require.NoError(t, s.Ping(ctx))

	list, err := s.List(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
