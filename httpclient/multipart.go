package httpclient

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// MultipartForm is a multipart/form-data body for Session.UploadMultipart.
type MultipartForm struct {
	// Fields are simple key-value form fields, written in key order.
	Fields map[string]string
	// Files are file parts, written after the fields in slice order.
	Files []FilePart
}

// FilePart is one file in a multipart form. Exactly one of Data, Reader or
// Path supplies the content.
type FilePart struct {
	FieldName string
	// FileName defaults to the base name of Path.
	FileName string
	// ContentType defaults to application/octet-stream.
	ContentType string
	Data        []byte
	Reader      io.Reader
	Path        string
}

// Encode renders the form and returns the body and its Content-Type.
func (m *MultipartForm) Encode() ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, m.Fields[k]); err != nil {
			return nil, "", err
		}
	}

	for _, f := range m.Files {
		if err := f.write(w); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

func (f FilePart) write(w *multipart.Writer) error {
	name := f.FileName
	if name == "" && f.Path != "" {
		name = filepath.Base(f.Path)
	}
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		`form-data; name="`+escapeQuotes(f.FieldName)+`"; filename="`+escapeQuotes(name)+`"`)
	header.Set("Content-Type", ct)
	part, err := w.CreatePart(header)
	if err != nil {
		return err
	}

	switch {
	case f.Data != nil:
		_, err = part.Write(f.Data)
	case f.Reader != nil:
		_, err = io.Copy(part, f.Reader)
	case f.Path != "":
		var file *os.File
		file, err = os.Open(f.Path)
		if err != nil {
			return NewFileError("open multipart file", err)
		}
		_, err = io.Copy(part, file)
		_ = file.Close()
	}
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// UploadMultipart encodes form and uploads it, setting the multipart
// Content-Type on the request.
func (s *Session) UploadMultipart(form *MultipartForm, conv URLRequestConvertible) (*UploadRequest, error) {
	body, contentType, err := form.Encode()
	if err != nil {
		return nil, NewParameterEncodingError(err)
	}
	req, err := s.prepare(conv)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	r := newUploadRequest(s, req, UploadData(body))
	s.autoStart(r.task)
	return r, nil
}
