package filestore

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectName(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	now := time.Date(2024, 3, 7, 23, 0, 0, 0, time.UTC)

	name, err := objectName("user-1", "Relevé Mars.CSV", now, id)
	require.NoError(t, err)
	assert.Equal(t, "uploads/user-1/2024/03/07/11111111-2222-3333-4444-555555555555.csv", name)

	name, err = objectName("user-1", `C:\exports\bill.pdf`, now, id)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, ".pdf"))

	name, err = objectName("user-1", "noext", now, id)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(name, id.String()))

	for _, bad := range []string{"", "..", "a/b", `a\b`} {
		_, err := objectName(bad, "x.csv", now, id)
		assert.Error(t, err, "user %q", bad)
	}
}

func TestCheckOwner(t *testing.T) {
	assert.NoError(t, checkOwner("u1", "uploads/u1/2024/01/01/x.csv"))
	assert.ErrorIs(t, checkOwner("u2", "uploads/u1/2024/01/01/x.csv"), ErrForbidden)
	assert.ErrorIs(t, checkOwner("u1", "uploads/u1/../u2/x.csv"), ErrInvalidHandle)
	assert.ErrorIs(t, checkOwner("u1", "uploads/u10/x.csv"), ErrForbidden)
}

func TestParseGCSURI(t *testing.T) {
	bucket, object, err := ParseGCSURI("gs://leaks/uploads/u1/x.csv")
	require.NoError(t, err)
	assert.Equal(t, "leaks", bucket)
	assert.Equal(t, "uploads/u1/x.csv", object)

	for _, bad := range []string{"s3://b/o", "gs://bucket", "gs:///o", "file://x"} {
		_, _, err := ParseGCSURI(bad)
		assert.ErrorIs(t, err, ErrInvalidHandle, bad)
	}
}

func TestGCSStoreGetRejectsForeignHandles(t *testing.T) {
	s := NewGCSStore(nil, "leaks")
	ctx := context.Background()

	_, err := s.Get(ctx, "u1", "gs://other/uploads/u1/x.csv")
	assert.ErrorIs(t, err, ErrInvalidHandle)

	_, err = s.Get(ctx, "u2", "gs://leaks/uploads/u1/x.csv")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) }

	h, err := s.Put(ctx, "user-1", "statement.csv", "text/csv", []byte("a;b;c"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(h), "file://uploads/user-1/2024/01/15/"))

	data, err := s.Get(ctx, "user-1", h)
	require.NoError(t, err)
	assert.Equal(t, "a;b;c", string(data))

	_, err = s.Get(ctx, "user-2", h)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.Get(ctx, "user-1", "file://uploads/user-1/2024/01/15/missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(ctx, "user-1", "gs://b/uploads/user-1/x")
	assert.ErrorIs(t, err, ErrInvalidHandle)
}
