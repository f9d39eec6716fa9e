package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/ecostore/apiserver/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBackend struct {
	mu          sync.Mutex
	objects     map[string][]byte
	types       map[string]string
	ensureCalls int
	ensureErr   error
	closed      bool
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memoryBackend) EnsureBucket(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureCalls++
	return m.ensureErr
}

func (m *memoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *memoryBackend) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *memoryBackend) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memoryBackend) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memoryBackend) Bucket() string { return "memory" }

func TestStorage_PutJSON(t *testing.T) {
	backend := newMemoryBackend()
	s := NewStorage(backend)
	ctx := context.Background()

	require.NoError(t, s.PutJSON(ctx, "exports/a.json", map[string]int{"count": 2}))
	assert.Equal(t, "application/json", backend.types["exports/a.json"])

	rc, err := s.Get(ctx, "exports/a.json")
	require.NoError(t, err)
	defer rc.Close()

	var got map[string]int
	require.NoError(t, json.NewDecoder(rc).Decode(&got))
	assert.Equal(t, 2, got["count"])

	require.NoError(t, s.Delete(ctx, "exports/a.json"))
	_, err = s.Get(ctx, "exports/a.json")
	assert.True(t, errors.Is(err, ErrObjectNotFound))
}

func TestStorage_PutJSONRejectsUnencodable(t *testing.T) {
	s := NewStorage(newMemoryBackend())
	err := s.PutJSON(context.Background(), "bad.json", make(chan int))
	assert.Error(t, err)
}

func TestOpen_Disabled(t *testing.T) {
	s, err := Open(context.Background(), config.StorageConfig{Backend: config.StorageBackendNone})
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestOpen_Invalid(t *testing.T) {
	ctx := context.Background()

	_, err := Open(ctx, config.StorageConfig{Backend: "ftp"})
	assert.Error(t, err)

	_, err = Open(ctx, config.StorageConfig{Backend: config.StorageBackendMinio})
	assert.ErrorContains(t, err, "minio endpoint is required")

	_, err = Open(ctx, config.StorageConfig{Backend: config.StorageBackendGCS})
	assert.ErrorContains(t, err, "gcs bucket is required")

	_, err = Open(ctx, config.StorageConfig{Backend: config.StorageBackendS3})
	assert.ErrorContains(t, err, "s3 bucket is required")
}

func TestPrepare_ClosesBackendWhenBucketFails(t *testing.T) {
	backend := newMemoryBackend()
	backend.ensureErr = errors.New("access denied")

	s, err := prepare(context.Background(), backend)
	assert.Nil(t, s)
	assert.ErrorContains(t, err, "ensure bucket memory: access denied")
	assert.True(t, backend.closed)
}

func TestStorage_Close(t *testing.T) {
	backend := newMemoryBackend()
	s, err := prepare(context.Background(), backend)
	require.NoError(t, err)
	assert.Equal(t, 1, backend.ensureCalls)
	assert.False(t, backend.closed)

	require.NoError(t, s.Close())
	assert.True(t, backend.closed)

	var disabled *Storage
	assert.NoError(t, disabled.Close())
}
