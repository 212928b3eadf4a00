package objectstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemS3() *memS3 {
	return &memS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	m.objects[key] = data
	m.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *memS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Store_PutGetDelete(t *testing.T) {
	mem := newMemS3()
	store := newS3Store(mem, "art", "")
	ctx := context.Background()

	ref, err := store.Put(ctx, "nfts/p1/a.png", []byte("img"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "s3://art/nfts/p1/a.png", ref)
	assert.Equal(t, "image/png", mem.types["art/nfts/p1/a.png"])

	data, err := store.Get(ctx, "nfts/p1/a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("img"), data)

	require.NoError(t, store.Delete(ctx, "nfts/p1/a.png"))
	_, err = store.Get(ctx, "nfts/p1/a.png")
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}

func TestS3Store_URLAndKeyFor(t *testing.T) {
	store := newS3Store(newMemS3(), "art", "https://cdn.example.com/")

	assert.Equal(t, "https://cdn.example.com/x/y.png", store.URL("x/y.png"))

	key, ok := store.KeyFor("https://cdn.example.com/x/y.png")
	require.True(t, ok)
	assert.Equal(t, "x/y.png", key)

	key, ok = store.KeyFor("s3://art/x/z.png")
	require.True(t, ok)
	assert.Equal(t, "x/z.png", key)

	_, ok = store.KeyFor("https://elsewhere.example.com/x.png")
	assert.False(t, ok)
}
