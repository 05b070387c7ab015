package httpclient

import (
	"bytes"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/kbukum/rxhttp/testutil"
)

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return data
}

func TestDownload_ToPath(t *testing.T) {
	srv := testutil.StartServer(t)
	s := newTestSession(t, srv)
	dest := filepath.Join(t.TempDir(), "nested", "out.bin")

	r, err := s.Download(get("/files/1000"), ToPath(dest, DownloadOptions{CreateIntermediateDirectories: true}))
	if err != nil {
		t.Fatal(err)
	}
	resp := awaitDownload(t, r.ValidateSuccess())
	if resp.Err != nil {
		t.Fatalf("unexpected error: %v", resp.Err)
	}
	if resp.DestinationPath != dest {
		t.Errorf("DestinationPath = %q, want %q", resp.DestinationPath, dest)
	}
	if !bytes.Equal(readFile(t, dest), testutil.FileContent(1000)) {
		t.Error("downloaded content mismatch")
	}
	if _, err := os.Stat(resp.TemporaryPath); !os.IsNotExist(err) {
		t.Errorf("temporary file should be moved away, stat err = %v", err)
	}
	if resp.ResumeData != nil {
		t.Error("successful download should have no resume data")
	}
}

func TestDownload_NoDestinationKeepsTempFile(t *testing.T) {
	srv := testutil.StartServer(t)
	s := newTestSession(t, srv)

	r, err := s.Download(get("/files/64"), nil)
	if err != nil {
		t.Fatal(err)
	}
	resp := awaitDownload(t, r)
	if resp.Err != nil {
		t.Fatal(resp.Err)
	}
	if resp.DestinationPath != resp.TemporaryPath || resp.TemporaryPath == "" {
		t.Errorf("expected destination to be the temp file, got %q / %q", resp.DestinationPath, resp.TemporaryPath)
	}
	if !bytes.Equal(readFile(t, resp.TemporaryPath), testutil.FileContent(64)) {
		t.Error("downloaded content mismatch")
	}
}

func TestDownload_ExistingDestination(t *testing.T) {
	srv := testutil.StartServer(t)
	s := newTestSession(t, srv)

	tests := []struct {
		name    string
		opts    DownloadOptions
		wantErr bool
	}{
		{"keep previous", DownloadOptions{}, true},
		{"remove previous", DownloadOptions{RemovePreviousFile: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dest := filepath.Join(t.TempDir(), "out.bin")
			if err := os.WriteFile(dest, []byte("old"), 0o600); err != nil {
				t.Fatal(err)
			}
			r, err := s.Download(get("/files/32"), ToPath(dest, tt.opts))
			if err != nil {
				t.Fatal(err)
			}
			resp := awaitDownload(t, r)
			if tt.wantErr {
				var e *Error
				if !asFileError(resp.Err, &e) {
					t.Fatalf("expected file error, got %v", resp.Err)
				}
				if string(readFile(t, dest)) != "old" {
					t.Error("existing file must be left alone")
				}
				return
			}
			if resp.Err != nil {
				t.Fatal(resp.Err)
			}
			if !bytes.Equal(readFile(t, dest), testutil.FileContent(32)) {
				t.Error("existing file was not replaced")
			}
		})
	}
}

func asFileError(err error, target **Error) bool {
	var e *Error
	if !errors.As(err, &e) || e.Code != ErrCodeFile {
		return false
	}
	*target = e
	return true
}

func TestDownload_ToDirectory(t *testing.T) {
	srv := testutil.StartServer(t)
	s := newTestSession(t, srv)
	dir := t.TempDir()

	r, err := s.Download(get("/files/16"), ToDirectory(dir, DownloadOptions{}))
	if err != nil {
		t.Fatal(err)
	}
	resp := awaitDownload(t, r)
	if resp.Err != nil {
		t.Fatal(resp.Err)
	}
	if want := filepath.Join(dir, "16"); resp.DestinationPath != want {
		t.Errorf("DestinationPath = %q, want %q", resp.DestinationPath, want)
	}
}

func TestDownload_ValidationFailure(t *testing.T) {
	srv := testutil.StartServer(t)
	s := newTestSession(t, srv)

	r, err := s.Download(get("/status/404"), nil)
	if err != nil {
		t.Fatal(err)
	}
	resp := awaitDownload(t, r.ValidateStatus(http.StatusOK))
	if !IsNotFound(resp.Err) {
		t.Errorf("expected not found, got %v", resp.Err)
	}
}

func TestDownload_Resume(t *testing.T) {
	srv := testutil.StartServer(t)
	s := newTestSession(t, srv, deferred)

	first, err := s.Download(get("/files/1000?fail_after=400"), nil)
	if err != nil {
		t.Fatal(err)
	}
	first.Resume()
	failed := awaitDownload(t, first)
	if failed.Err == nil {
		t.Fatal("expected the first attempt to fail")
	}
	if failed.ResumeData == nil || first.ResumeData() == nil {
		t.Fatal("expected resume data after a dropped connection")
	}

	dest := filepath.Join(t.TempDir(), "resumed.bin")
	second, err := s.DownloadResuming(failed.ResumeData, ToPath(dest, DownloadOptions{}))
	if err != nil {
		t.Fatal(err)
	}
	var (
		mu      sync.Mutex
		samples [][2]int64
	)
	second.ProgressCapability().Download(func(completed, total int64) {
		mu.Lock()
		samples = append(samples, [2]int64{completed, total})
		mu.Unlock()
	})
	second.Resume()
	resp := awaitDownload(t, second.ValidateStatus(http.StatusOK, http.StatusPartialContent))
	if resp.Err != nil {
		t.Fatalf("resumed download failed: %v", resp.Err)
	}
	if resp.Response.StatusCode != http.StatusPartialContent {
		t.Errorf("expected 206, got %d", resp.Response.StatusCode)
	}
	if !bytes.Equal(readFile(t, dest), testutil.FileContent(1000)) {
		t.Error("resumed content mismatch")
	}

	reqs := srv.Requests()
	last := reqs[len(reqs)-1]
	if got := last.Header.Get("Range"); got != "bytes=400-" {
		t.Errorf("Range = %q, want bytes=400-", got)
	}
	if got := last.Header.Get("If-Range"); got != `"file-1000"` {
		t.Errorf("If-Range = %q", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(samples) == 0 || samples[0][0] <= 400 || samples[len(samples)-1] != [2]int64{1000, 1000} {
		t.Errorf("unexpected resumed progress %v", samples)
	}
}

func TestDownload_InvalidResumeData(t *testing.T) {
	s, err := New(Config{})
	if err != nil {
		t.Fatal(err)
	}
	for _, data := range [][]byte{nil, []byte("{"), []byte(`{"url":""}`)} {
		if _, err := s.DownloadResuming(data, nil); !IsConstruction(err) {
			t.Errorf("DownloadResuming(%q) error = %v, want construction error", data, err)
		}
	}
}
