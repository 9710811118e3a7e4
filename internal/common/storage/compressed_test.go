package storage

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestCompressedStorageRoundTrip(t *testing.T) {
	mem := NewMemoryStorage()
	cs, err := NewCompressedStorage(mem)
	if err != nil {
		t.Fatalf("new compressed storage: %v", err)
	}
	defer cs.Close()

	ctx := context.Background()
	body := strings.Repeat("Experienced Go engineer. ", 200)
	if err := cs.PutObject(ctx, "resumes/1/cv.txt", strings.NewReader(body), int64(len(body)), "text/plain"); err != nil {
		t.Fatalf("put: %v", err)
	}

	keys := mem.Keys()
	if len(keys) != 1 || keys[0] != "resumes/1/cv.txt.zst" {
		t.Fatalf("stored keys = %v", keys)
	}
	stat, err := cs.StatObject(ctx, "resumes/1/cv.txt")
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if stat.SizeBytes >= int64(len(body)) {
		t.Fatalf("expected compression, stored %d of %d bytes", stat.SizeBytes, len(body))
	}

	rc, err := cs.GetObject(ctx, "resumes/1/cv.txt")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer rc.Close()
	got, _ := io.ReadAll(rc)
	if !bytes.Equal(got, []byte(body)) {
		t.Fatal("round trip mismatch")
	}

	if err := cs.RemoveObject(ctx, "resumes/1/cv.txt"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(mem.Keys()) != 0 {
		t.Fatal("object should be removed")
	}
}
