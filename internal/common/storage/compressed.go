package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

const (
	compressedSuffix = ".zst"
	// maxCompressedObject bounds what is buffered in memory for one object.
	maxCompressedObject = 32 << 20
)

// CompressedStorage stores objects zstd-compressed under "<key>.zst" in the wrapped storage
// and transparently decompresses them on read.
type CompressedStorage struct {
	inner   ObjectStorage
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

var _ ObjectStorage = (*CompressedStorage)(nil)

func NewCompressedStorage(inner ObjectStorage) (*CompressedStorage, error) {
	if inner == nil {
		return nil, fmt.Errorf("inner storage is required")
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxCompressedObject*4))
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &CompressedStorage{inner: inner, encoder: enc, decoder: dec}, nil
}

func (s *CompressedStorage) PutObject(ctx context.Context, objectKey string, reader io.Reader, sizeBytes int64, contentType string) error {
	if reader == nil {
		return fmt.Errorf("reader is required")
	}
	raw, err := io.ReadAll(io.LimitReader(reader, maxCompressedObject+1))
	if err != nil {
		return fmt.Errorf("read object body: %w", err)
	}
	if len(raw) > maxCompressedObject {
		return fmt.Errorf("object exceeds %d bytes", maxCompressedObject)
	}
	packed := s.encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2))
	return s.inner.PutObject(ctx, objectKey+compressedSuffix, bytes.NewReader(packed), int64(len(packed)), "application/zstd")
}

func (s *CompressedStorage) GetObject(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	rc, err := s.inner.GetObject(ctx, objectKey+compressedSuffix)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	packed, err := io.ReadAll(io.LimitReader(rc, maxCompressedObject+1))
	if err != nil {
		return nil, fmt.Errorf("read compressed object: %w", err)
	}
	raw, err := s.decoder.DecodeAll(packed, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress object: %w", err)
	}
	return io.NopCloser(bytes.NewReader(raw)), nil
}

func (s *CompressedStorage) StatObject(ctx context.Context, objectKey string) (ObjectStat, error) {
	return s.inner.StatObject(ctx, objectKey+compressedSuffix)
}

func (s *CompressedStorage) RemoveObject(ctx context.Context, objectKey string) error {
	return s.inner.RemoveObject(ctx, objectKey+compressedSuffix)
}

// Close releases encoder and decoder resources.
func (s *CompressedStorage) Close() {
	_ = s.encoder.Close()
	s.decoder.Close()
}
