package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
)

// DownloadOptions control how a finished download is moved into place.
type DownloadOptions struct {
	// CreateIntermediateDirectories creates missing parent directories.
	CreateIntermediateDirectories bool
	// RemovePreviousFile replaces an existing file at the destination.
	RemovePreviousFile bool
}

// Destination picks the final path for a downloaded file. It is called once
// the body has been written to tempPath.
type Destination func(tempPath string, resp *Response) (string, DownloadOptions)

// ToPath returns a Destination that always moves the file to path.
func ToPath(path string, opts DownloadOptions) Destination {
	return func(string, *Response) (string, DownloadOptions) {
		return path, opts
	}
}

// ToDirectory returns a Destination that moves the file into dir, named
// after the last segment of the response URL.
func ToDirectory(dir string, opts DownloadOptions) Destination {
	return func(tempPath string, resp *Response) (string, DownloadOptions) {
		name := filepath.Base(tempPath)
		if resp != nil && resp.URL != nil {
			if base := filepath.Base(resp.URL.Path); base != "." && base != "/" && base != "" {
				name = base
			}
		}
		return filepath.Join(dir, name), opts
	}
}

// resumeData is the document behind DownloadRequest.ResumeData.
type resumeData struct {
	URL           string      `json:"url"`
	Method        string      `json:"method"`
	Header        http.Header `json:"header,omitempty"`
	TempPath      string      `json:"temp_path"`
	BytesReceived int64       `json:"bytes_received"`
	ETag          string      `json:"etag,omitempty"`
	LastModified  string      `json:"last_modified,omitempty"`
}

func decodeResumeData(data []byte) (*resumeData, error) {
	if len(data) == 0 {
		return nil, NewInvalidResumeDataError(errors.New("empty"))
	}
	var rd resumeData
	if err := json.Unmarshal(data, &rd); err != nil {
		return nil, NewInvalidResumeDataError(err)
	}
	if rd.URL == "" || rd.TempPath == "" {
		return nil, NewInvalidResumeDataError(errors.New("missing url or temp path"))
	}
	return &rd, nil
}

func (rd *resumeData) urlRequest() *URLRequest {
	u, err := url.Parse(rd.URL)
	if err != nil {
		return &URLRequest{Method: rd.Method, Header: rd.Header}
	}
	return &URLRequest{Method: rd.Method, URL: u, Header: rd.Header.Clone()}
}

// validator returns the If-Range value, preferring a strong ETag.
func (rd *resumeData) validator() string {
	if rd.ETag != "" {
		return rd.ETag
	}
	return rd.LastModified
}

// DownloadRequest is a live request whose body is written to a file.
type DownloadRequest struct {
	*task
	destination Destination
	resume      *resumeData

	tempPath        string
	destinationPath string
	resumeData      []byte
}

func newDownloadRequest(s *Session, req *URLRequest, dest Destination, rd *resumeData) *DownloadRequest {
	t := newTask(s, KindDownload, req)
	r := &DownloadRequest{task: t, destination: dest, resume: rd}
	t.perform = r.send
	return r
}

// ResumeData returns the data needed to resume the download with
// Session.DownloadResuming, or nil when the download cannot be resumed.
// Available once the request has finished with an error.
func (r *DownloadRequest) ResumeData() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resumeData
}

// Validate adds a validation applied before handlers see the outcome.
func (r *DownloadRequest) Validate(v Validation) *DownloadRequest {
	r.addValidation(v)
	return r
}

// ValidateStatus accepts only the listed status codes.
func (r *DownloadRequest) ValidateStatus(codes ...int) *DownloadRequest {
	return r.Validate(StatusCodes(codes...))
}

// ValidateStatusRange accepts status codes in [min, max].
func (r *DownloadRequest) ValidateStatusRange(min, max int) *DownloadRequest {
	return r.Validate(StatusRange(min, max))
}

// ValidateContentType accepts only the listed MIME types.
func (r *DownloadRequest) ValidateContentType(types ...string) *DownloadRequest {
	return r.Validate(ContentTypes(types...))
}

// ValidateSuccess accepts 2xx responses matching the request's Accept header.
func (r *DownloadRequest) ValidateSuccess() *DownloadRequest {
	return r.Validate(Success())
}

// Response registers handler to receive the terminal outcome.
func (r *DownloadRequest) Response(handler func(DownloadResponse)) *DownloadRequest {
	r.addHandler(func() {
		resp, _, err := r.outcome()
		r.mu.Lock()
		out := DownloadResponse{
			Request:         r.request,
			Response:        resp,
			TemporaryPath:   r.tempPath,
			DestinationPath: r.destinationPath,
			ResumeData:      r.resumeData,
			Duration:        r.duration,
			Err:             err,
		}
		r.mu.Unlock()
		handler(out)
	})
	return r
}

func (r *DownloadRequest) send(ctx context.Context) (*Response, []byte, error) {
	file, offset, err := r.openTemp()
	if err != nil {
		return nil, nil, err
	}

	httpReq, err := r.request.HTTPRequest(ctx, nil)
	if err != nil {
		_ = file.Close()
		return nil, nil, err
	}
	if offset > 0 {
		httpReq.Header.Set("Range", "bytes="+strconv.FormatInt(offset, 10)+"-")
		if v := r.resume.validator(); v != "" {
			httpReq.Header.Set("If-Range", v)
		}
	}

	httpResp, err := r.session.roundTrip(ctx, r.task, httpReq)
	if err != nil {
		_ = file.Close()
		r.saveResumeData(nil, offset)
		return nil, nil, err
	}
	defer func() { _ = httpResp.Body.Close() }()
	meta := newResponse(httpResp)

	// 206 continues the partial file; anything else starts over.
	if httpResp.StatusCode == http.StatusPartialContent && offset > 0 {
		total := int64(-1)
		if httpResp.ContentLength >= 0 {
			total = offset + httpResp.ContentLength
		}
		r.download.reset(offset, total)
	} else {
		if offset > 0 {
			if err := file.Truncate(0); err != nil {
				_ = file.Close()
				return meta, nil, NewFileError("truncate temp file", err)
			}
			if _, err := file.Seek(0, io.SeekStart); err != nil {
				_ = file.Close()
				return meta, nil, NewFileError("seek temp file", err)
			}
		}
		offset = 0
		r.download.reset(0, httpResp.ContentLength)
	}

	_, copyErr := io.Copy(file, &countingReader{r: httpResp.Body, p: r.download})
	closeErr := file.Close()
	if copyErr != nil {
		received, _ := r.download.snapshot()
		r.saveResumeData(meta, received)
		return meta, nil, r.transportError(copyErr)
	}
	if closeErr != nil {
		return meta, nil, NewFileError("close temp file", closeErr)
	}

	if err := r.moveToDestination(meta); err != nil {
		return meta, nil, err
	}
	return meta, nil, nil
}

// openTemp opens the file the body is written to: the partial file named in
// resume data when it still exists, otherwise a fresh temporary file.
func (r *DownloadRequest) openTemp() (*os.File, int64, error) {
	if r.resume != nil {
		if info, err := os.Stat(r.resume.TempPath); err == nil && !info.IsDir() {
			f, err := os.OpenFile(r.resume.TempPath, os.O_WRONLY|os.O_APPEND, 0o644)
			if err == nil {
				r.setTempPath(r.resume.TempPath)
				return f, info.Size(), nil
			}
		}
	}
	f, err := os.CreateTemp(r.session.tempDir, "rxhttp-*.download")
	if err != nil {
		return nil, 0, NewFileError("create temp file", err)
	}
	r.setTempPath(f.Name())
	return f, 0, nil
}

func (r *DownloadRequest) setTempPath(p string) {
	r.mu.Lock()
	r.tempPath = p
	r.mu.Unlock()
}

func (r *DownloadRequest) saveResumeData(meta *Response, received int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tempPath == "" || received <= 0 {
		return
	}
	rd := resumeData{
		URL:           r.request.URL.String(),
		Method:        r.request.Method,
		Header:        r.request.Header,
		TempPath:      r.tempPath,
		BytesReceived: received,
	}
	if meta != nil {
		rd.ETag = meta.Header.Get("ETag")
		rd.LastModified = meta.Header.Get("Last-Modified")
	} else if r.resume != nil {
		rd.ETag, rd.LastModified = r.resume.ETag, r.resume.LastModified
	}
	data, err := json.Marshal(rd)
	if err != nil {
		return
	}
	r.resumeData = data
}

func (r *DownloadRequest) moveToDestination(meta *Response) error {
	r.mu.Lock()
	tempPath := r.tempPath
	r.mu.Unlock()

	if r.destination == nil {
		r.mu.Lock()
		r.destinationPath = tempPath
		r.mu.Unlock()
		return nil
	}

	dest, opts := r.destination(tempPath, meta)
	if dest == "" {
		return NewFileError("move download", errors.New("empty destination"))
	}
	if opts.CreateIntermediateDirectories {
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return NewFileError("create destination directory", err)
		}
	}
	if opts.RemovePreviousFile {
		if err := os.Remove(dest); err != nil && !os.IsNotExist(err) {
			return NewFileError("remove previous file", err)
		}
	} else if _, err := os.Stat(dest); err == nil {
		return NewFileError("move download", fmt.Errorf("%s already exists", dest))
	}
	if err := moveFile(tempPath, dest); err != nil {
		return NewFileError("move download", err)
	}

	r.mu.Lock()
	r.destinationPath = dest
	r.mu.Unlock()
	return nil
}

// moveFile renames src to dst, copying when they are on different devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}
