package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStorage is an in-process ObjectStorage used when no MinIO endpoint is configured
// and in tests.
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
}

type memoryObject struct {
	data        []byte
	contentType string
}

var _ ObjectStorage = (*MemoryStorage)(nil)

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string]memoryObject)}
}

func (s *MemoryStorage) PutObject(_ context.Context, objectKey string, reader io.Reader, _ int64, contentType string) error {
	if objectKey == "" {
		return fmt.Errorf("objectKey is required")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[objectKey] = memoryObject{data: data, contentType: contentType}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStorage) GetObject(_ context.Context, objectKey string) (io.ReadCloser, error) {
	s.mu.RLock()
	obj, ok := s.objects[objectKey]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("object %s not found", objectKey)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *MemoryStorage) StatObject(_ context.Context, objectKey string) (ObjectStat, error) {
	s.mu.RLock()
	obj, ok := s.objects[objectKey]
	s.mu.RUnlock()
	if !ok {
		return ObjectStat{}, fmt.Errorf("object %s not found", objectKey)
	}
	return ObjectStat{SizeBytes: int64(len(obj.data)), ContentType: obj.contentType}, nil
}

func (s *MemoryStorage) RemoveObject(_ context.Context, objectKey string) error {
	s.mu.Lock()
	delete(s.objects, objectKey)
	s.mu.Unlock()
	return nil
}

// Keys lists stored object keys.
func (s *MemoryStorage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.objects))
	for k := range s.objects {
		keys = append(keys, k)
	}
	return keys
}
