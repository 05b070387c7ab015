package httpclient

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
)

// DataRequest is a live request whose response body is kept in memory.
type DataRequest struct {
	*task
}

func newDataRequest(s *Session, kind Kind, req *URLRequest, body func() (io.ReadCloser, int64, error)) *DataRequest {
	t := newTask(s, kind, req)
	r := &DataRequest{task: t}
	t.perform = func(ctx context.Context) (*Response, []byte, error) {
		return r.send(ctx, body)
	}
	return r
}

func (r *DataRequest) send(ctx context.Context, body func() (io.ReadCloser, int64, error)) (*Response, []byte, error) {
	var (
		reader io.Reader
		size   int64 = -1
	)
	if body != nil {
		rc, n, err := body()
		if err != nil {
			return nil, nil, err
		}
		defer func() { _ = rc.Close() }()
		size = n
		r.upload.reset(0, n)
		reader = &countingReader{r: rc, p: r.upload}
	}

	httpReq, err := r.request.HTTPRequest(ctx, reader)
	if err != nil {
		return nil, nil, err
	}
	if reader != nil {
		httpReq.ContentLength = size
		if size == 0 {
			httpReq.Body = http.NoBody
		}
	}

	resp, err := r.session.roundTrip(ctx, r.task, httpReq)
	if err != nil {
		return nil, nil, err
	}
	meta := newResponse(resp)
	data, err := r.readBody(resp)
	return meta, data, err
}

// Validate adds a validation applied before handlers see the outcome.
func (r *DataRequest) Validate(v Validation) *DataRequest {
	r.addValidation(v)
	return r
}

// ValidateStatus accepts only the listed status codes.
func (r *DataRequest) ValidateStatus(codes ...int) *DataRequest {
	return r.Validate(StatusCodes(codes...))
}

// ValidateStatusRange accepts status codes in [min, max].
func (r *DataRequest) ValidateStatusRange(min, max int) *DataRequest {
	return r.Validate(StatusRange(min, max))
}

// ValidateContentType accepts only the listed MIME types.
func (r *DataRequest) ValidateContentType(types ...string) *DataRequest {
	return r.Validate(ContentTypes(types...))
}

// ValidateSuccess accepts 2xx responses matching the request's Accept header.
func (r *DataRequest) ValidateSuccess() *DataRequest {
	return r.Validate(Success())
}

// Response registers handler to receive the terminal outcome.
func (r *DataRequest) Response(handler func(DataResponse)) *DataRequest {
	r.addHandler(func() {
		resp, data, err := r.outcome()
		r.mu.Lock()
		duration := r.duration
		r.mu.Unlock()
		handler(DataResponse{
			Request:  r.request,
			Response: resp,
			Data:     data,
			Duration: duration,
			Err:      err,
		})
	})
	return r
}

// UploadSource is the body of an upload: exactly one of Data, File or
// Stream must be set.
type UploadSource struct {
	Data []byte
	File string
	// Stream is read once. Size is its length, -1 when unknown.
	Stream io.Reader
	Size   int64
}

// UploadData uploads an in-memory body.
func UploadData(data []byte) UploadSource {
	return UploadSource{Data: data}
}

// UploadFile uploads the contents of a file.
func UploadFile(path string) UploadSource {
	return UploadSource{File: path}
}

// UploadStream uploads from a reader of the given size, -1 when unknown.
func UploadStream(r io.Reader, size int64) UploadSource {
	return UploadSource{Stream: r, Size: size}
}

func (u UploadSource) validate() error {
	set := 0
	if u.Data != nil {
		set++
	}
	if u.File != "" {
		set++
	}
	if u.Stream != nil {
		set++
	}
	if set != 1 {
		return NewValidationError("upload source must set exactly one of data, file or stream")
	}
	return nil
}

func (u UploadSource) open() (io.ReadCloser, int64, error) {
	switch {
	case u.File != "":
		f, err := os.Open(u.File)
		if err != nil {
			return nil, 0, NewFileError("open upload file", err)
		}
		info, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, 0, NewFileError("stat upload file", err)
		}
		if info.IsDir() {
			_ = f.Close()
			return nil, 0, NewFileError("open upload file", errors.New(u.File+" is a directory"))
		}
		return f, info.Size(), nil
	case u.Stream != nil:
		return io.NopCloser(u.Stream), u.Size, nil
	default:
		return io.NopCloser(bytes.NewReader(u.Data)), int64(len(u.Data)), nil
	}
}

// UploadRequest is a data request that sends a body from an UploadSource
// and reports upload progress.
type UploadRequest struct {
	DataRequest
	source UploadSource
}

func newUploadRequest(s *Session, req *URLRequest, src UploadSource) *UploadRequest {
	dr := newDataRequest(s, KindUpload, req, src.open)
	return &UploadRequest{DataRequest: *dr, source: src}
}
