package httpclient

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMultipartForm_Encode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("from disk"), 0o600); err != nil {
		t.Fatal(err)
	}
	form := &MultipartForm{
		Fields: map[string]string{"b": "2", "a": "1"},
		Files: []FilePart{
			{FieldName: "inline", FileName: `q"uote.bin`, Data: []byte("raw")},
			{FieldName: "reader", FileName: "r.txt", ContentType: "text/plain", Reader: strings.NewReader("streamed")},
			{FieldName: "disk", Path: path},
		},
	}

	body, contentType, err := form.Encode()
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	mt, params, err := mime.ParseMediaType(contentType)
	if err != nil || mt != "multipart/form-data" {
		t.Fatalf("Content-Type = %q (%v)", contentType, err)
	}

	type part struct{ name, file, ctype, body string }
	var parts []part
	mr := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		data, _ := io.ReadAll(p)
		parts = append(parts, part{p.FormName(), p.FileName(), p.Header.Get("Content-Type"), string(data)})
	}

	want := []part{
		{"a", "", "", "1"},
		{"b", "", "", "2"},
		{"inline", `q"uote.bin`, "application/octet-stream", "raw"},
		{"reader", "r.txt", "text/plain", "streamed"},
		{"disk", "notes.txt", "application/octet-stream", "from disk"},
	}
	if len(parts) != len(want) {
		t.Fatalf("got %d parts, want %d: %+v", len(parts), len(want), parts)
	}
	for i := range want {
		if parts[i] != want[i] {
			t.Errorf("part %d = %+v, want %+v", i, parts[i], want[i])
		}
	}
}

func TestMultipartForm_MissingFile(t *testing.T) {
	form := &MultipartForm{Files: []FilePart{{FieldName: "f", Path: filepath.Join(t.TempDir(), "missing")}}}
	if _, _, err := form.Encode(); err == nil {
		t.Fatal("expected error for missing file")
	}
}
