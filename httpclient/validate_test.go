package httpclient

import (
	"net/http"
	"testing"
)

func responseWith(status int, contentType string) *Response {
	h := http.Header{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &Response{StatusCode: status, Header: h, Headers: flattenHeaders(h)}
}

func TestMimeMatches(t *testing.T) {
	tests := []struct {
		pattern, got string
		want         bool
	}{
		{"application/json", "application/json", true},
		{"APPLICATION/JSON", "application/json", true},
		{"application/*", "application/xml", true},
		{"*/*", "", true},
		{"*", "text/plain", true},
		{"text/plain", "text/html", false},
		{"text/*", "", false},
	}
	for _, tt := range tests {
		if got := mimeMatches(tt.pattern, tt.got); got != tt.want {
			t.Errorf("mimeMatches(%q, %q) = %v, want %v", tt.pattern, tt.got, got, tt.want)
		}
	}
}

func TestValidations(t *testing.T) {
	req := &URLRequest{Header: http.Header{}}
	jsonReq := &URLRequest{Header: http.Header{"Accept": {"application/json;q=0.9, text/*"}}}

	tests := []struct {
		name    string
		v       Validation
		req     *URLRequest
		resp    *Response
		data    []byte
		wantErr bool
	}{
		{"range ok", StatusRange(200, 299), req, responseWith(204, ""), nil, false},
		{"range fail", StatusRange(200, 299), req, responseWith(302, ""), nil, true},
		{"codes ok", StatusCodes(200, 418), req, responseWith(418, ""), nil, false},
		{"codes fail", StatusCodes(200), req, responseWith(201, ""), nil, true},
		{"no response", StatusCodes(200), req, nil, nil, false},
		{"content ok", ContentTypes("application/json"), req, responseWith(200, "application/json; charset=utf-8"), []byte("{}"), false},
		{"content fail", ContentTypes("application/json"), req, responseWith(200, "text/html"), []byte("<p>"), true},
		{"content missing header", ContentTypes("application/json"), req, responseWith(200, ""), []byte("x"), true},
		{"content empty body", ContentTypes("application/json"), req, responseWith(200, "text/html"), []byte{}, false},
		{"success no accept", Success(), req, responseWith(200, "text/html"), []byte("x"), false},
		{"success accept match", Success(), jsonReq, responseWith(200, "text/plain"), []byte("x"), false},
		{"success accept mismatch", Success(), jsonReq, responseWith(200, "image/png"), []byte("x"), true},
		{"success bad status", Success(), req, responseWith(500, "text/html"), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.v(tt.req, tt.resp, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !IsValidation(err) && !IsServerError(err) {
				t.Errorf("validation error should be classified, got %v", err)
			}
		})
	}
}

func TestResponse_Metadata(t *testing.T) {
	r := responseWith(404, "Text/Plain; charset=ISO-8859-1")
	if r.MIMEType() != "text/plain" || r.Charset() != "ISO-8859-1" {
		t.Errorf("MIMEType=%q Charset=%q", r.MIMEType(), r.Charset())
	}
	if r.IsSuccess() || !r.IsError() {
		t.Error("404 should be an error status")
	}
	if responseWith(200, "not a type;;").MIMEType() != "" {
		t.Error("malformed Content-Type should yield an empty MIME type")
	}
}
