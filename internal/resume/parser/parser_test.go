package parser

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(docxBodyPath)
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

func TestExtractTextTXT(t *testing.T) {
	got, err := ExtractText("cv.TXT", []byte("  Jane Doe\nGo engineer \n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Jane Doe\nGo engineer" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestExtractTextDOCX(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Jane</w:t></w:r><w:r><w:t xml:space="preserve"> Doe</w:t></w:r></w:p>
    <w:p><w:r><w:t>Skills:</w:t><w:tab/><w:t>Go, Kafka</w:t></w:r></w:p>
  </w:body>
</w:document>`
	got, err := ExtractText("resume.docx", buildDOCX(t, doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Jane Doe\nSkills:\tGo, Kafka" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestExtractTextDOCXMissingBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, _ = zw.Create("other.xml")
	_ = zw.Close()
	if _, err := ExtractText("resume.docx", buf.Bytes()); err == nil {
		t.Fatalf("expected error for docx without body")
	}
}

func TestExtractTextRejects(t *testing.T) {
	if _, err := ExtractText("old.doc", []byte("x")); !errors.Is(err, ErrLegacyDoc) {
		t.Fatalf("expected ErrLegacyDoc, got %v", err)
	}
	if _, err := ExtractText("photo.png", []byte("x")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if _, err := ExtractText("broken.pdf", []byte("not a pdf")); err == nil {
		t.Fatalf("expected error for invalid pdf")
	}
}
