package serializer

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/kbukum/rxhttp/httpclient"
	"github.com/kbukum/rxhttp/logger"
	"github.com/kbukum/rxhttp/testutil"
)

func response(status int, contentType string) *httpclient.Response {
	h := http.Header{}
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	return &httpclient.Response{StatusCode: status, Header: h, Headers: map[string]string{}}
}

func outcome(status int, contentType string, body string) httpclient.DataResponse {
	return httpclient.DataResponse{Response: response(status, contentType), Data: []byte(body)}
}

func TestData(t *testing.T) {
	tests := []struct {
		name    string
		out     httpclient.DataResponse
		want    string
		wantErr Reason
	}{
		{"body", outcome(200, "", "abc"), "abc", -1},
		{"empty 200", outcome(200, "", ""), "", ReasonEmptyData},
		{"empty 204", outcome(204, "", ""), "", -1},
		{"205 ignores body", outcome(205, "", "junk"), "", -1},
		{"no response", httpclient.DataResponse{}, "", ReasonEmptyData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Data().Serialize(tt.out)
			if tt.wantErr >= 0 {
				if r, ok := ReasonOf(err); !ok || r != tt.wantErr {
					t.Fatalf("expected %s, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil || string(got) != tt.want {
				t.Errorf("Serialize() = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestSerialize_PassesThroughOutcomeError(t *testing.T) {
	cause := httpclient.NewConnectionError(fmt.Errorf("refused"))
	out := httpclient.DataResponse{Err: cause, Data: []byte("{}")}

	if _, err := JSON(JSONOptions{}).Serialize(out); !errors.Is(err, cause) {
		t.Errorf("expected outcome error, got %v", err)
	}
	if IsParseFailure(cause) {
		t.Error("transport error must not be a parse failure")
	}

	called := false
	s := New("custom", func(*httpclient.Response, []byte) (int, error) {
		called = true
		return 1, nil
	})
	if _, err := s.Serialize(out); err == nil || called {
		t.Errorf("decoder should not run on failed outcome: err=%v called=%v", err, called)
	}
	if s.Format() != "custom" {
		t.Errorf("Format() = %q", s.Format())
	}
}

func TestString(t *testing.T) {
	latin1 := string([]byte{'c', 'a', 'f', 0xe9})
	tests := []struct {
		name    string
		out     httpclient.DataResponse
		enc     func() DataSerializer[string]
		want    string
		wantErr bool
	}{
		{"utf-8 charset", outcome(200, "text/plain; charset=utf-8", "héllo"), func() DataSerializer[string] { return String(nil) }, "héllo", false},
		{"latin1 charset", outcome(200, "text/plain; charset=iso-8859-1", latin1), func() DataSerializer[string] { return String(nil) }, "café", false},
		{"no charset uses default", outcome(200, "text/plain", latin1), func() DataSerializer[string] { return String(nil) }, "café", false},
		{"explicit overrides header", outcome(200, "text/plain; charset=utf-8", latin1), func() DataSerializer[string] { return String(charmap.ISO8859_1) }, "café", false},
		{"invalid utf-8", outcome(200, "text/plain; charset=utf-8", latin1), func() DataSerializer[string] { return String(nil) }, "", true},
		{"explicit utf-8 invalid", outcome(200, "", latin1), func() DataSerializer[string] { return String(unicode.UTF8) }, "", true},
		{"unknown charset", outcome(200, "text/plain; charset=x-klingon", "abc"), func() DataSerializer[string] { return String(nil) }, "", true},
		{"empty 204", outcome(204, "", ""), func() DataSerializer[string] { return String(nil) }, "", false},
		{"empty 200", outcome(200, "", ""), func() DataSerializer[string] { return String(nil) }, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.enc().Serialize(tt.out)
			if tt.wantErr {
				if !IsParseFailure(err) {
					t.Fatalf("expected parse failure, got %q, %v", got, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("Serialize() = %q, %v; want %q", got, err, tt.want)
			}
		})
	}
}

func TestString_ErrorNamesEncoding(t *testing.T) {
	_, err := String(nil).Serialize(outcome(200, "text/plain; charset=utf-8", "\xff"))
	var serr *Error
	if !errors.As(err, &serr) || serr.Reason != ReasonStringSerialization || serr.Encoding != "utf-8" {
		t.Errorf("unexpected error %#v", err)
	}
}

func TestString_RejectsInvalidUTF8ByLabel(t *testing.T) {
	utf8Enc, err := Encoding("UTF-8")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name string
		ser  DataSerializer[string]
		out  httpclient.DataResponse
	}{
		{"response charset", String(nil), outcome(200, "text/plain; charset=utf-8", "caf\xe9")},
		{"response charset alias", String(nil), outcome(200, "text/plain; charset=UTF8", "caf\xe9")},
		{"looked up encoding", String(utf8Enc), outcome(200, "", "caf\xe9")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.ser.Serialize(tt.out)
			var serr *Error
			if !errors.As(err, &serr) || serr.Reason != ReasonStringSerialization || serr.Encoding != "utf-8" {
				t.Fatalf("Serialize() = %q, %v; want string serialization failure naming utf-8", got, err)
			}
		})
	}
}

func TestEncoding(t *testing.T) {
	if _, err := Encoding("latin1"); err != nil {
		t.Errorf("latin1 should resolve: %v", err)
	}
	if _, err := Encoding("shift_jis"); err != nil {
		t.Errorf("shift_jis should resolve: %v", err)
	}
	if _, err := Encoding("nope"); err == nil {
		t.Error("expected error for unknown label")
	}
}

func TestJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		opts    JSONOptions
		want    string
		wantErr bool
	}{
		{"object", `{"a":1,"b":[true,null]}`, 200, JSONOptions{}, `{"a":1,"b":[true,null]}`, false},
		{"fragment allowed", `"hi"`, 200, JSONOptions{}, `"hi"`, false},
		{"fragment rejected", `42`, 200, JSONOptions{RejectFragments: true}, "", true},
		{"array with rejected fragments", ` [1] `, 200, JSONOptions{RejectFragments: true}, `[1]`, false},
		{"garbage", `not json`, 200, JSONOptions{}, "", true},
		{"trailing data", `{} {}`, 200, JSONOptions{}, "", true},
		{"empty 200", ``, 200, JSONOptions{}, "", true},
		{"empty 204", ``, 204, JSONOptions{}, `null`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JSON(tt.opts).Serialize(outcome(tt.status, "application/json", tt.body))
			if tt.wantErr {
				if !IsParseFailure(err) {
					t.Fatalf("expected parse failure, got %v, %v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			b, _ := json.Marshal(got)
			if string(b) != tt.want {
				t.Errorf("got %s, want %s", b, tt.want)
			}
		})
	}
}

func TestJSON_UseNumber(t *testing.T) {
	got, err := JSON(JSONOptions{UseNumber: true}).Serialize(outcome(200, "", `{"n":12345678901234567890}`))
	if err != nil {
		t.Fatal(err)
	}
	n, ok := got.(map[string]any)["n"].(json.Number)
	if !ok || n.String() != "12345678901234567890" {
		t.Errorf("expected json.Number, got %#v", got)
	}
}

func TestDecode(t *testing.T) {
	type item struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	got, err := Decode[item](JSONOptions{}).Serialize(outcome(200, "", `{"name":"rx","count":2,"extra":1}`))
	if err != nil || got != (item{Name: "rx", Count: 2}) {
		t.Errorf("Decode() = %+v, %v", got, err)
	}

	_, err = Decode[item](JSONOptions{DisallowUnknownFields: true}).Serialize(outcome(200, "", `{"name":"rx","extra":1}`))
	if r, _ := ReasonOf(err); !IsParseFailure(err) || r != ReasonJSONSerialization {
		t.Errorf("expected JSON failure, got %v", err)
	}
}

func TestPropertyList(t *testing.T) {
	got, err := PropertyList(PropertyListOptions{}).Serialize(outcome(200, "application/x-plist", testutil.PropertyList))
	if err != nil {
		t.Fatal(err)
	}
	dict, ok := got.(map[string]any)
	if !ok || dict["name"] != "rxhttp" || fmt.Sprint(dict["count"]) != "3" {
		t.Errorf("unexpected plist value %#v", got)
	}

	openStep := `{ name = rxhttp; }`
	if _, err := PropertyList(PropertyListOptions{Formats: []int{FormatXML, FormatBinary}}).Serialize(outcome(200, "", openStep)); !IsParseFailure(err) {
		t.Errorf("OpenStep should be rejected, got %v", err)
	}
	if v, err := PropertyList(PropertyListOptions{}).Serialize(outcome(200, "", openStep)); err != nil || v.(map[string]any)["name"] != "rxhttp" {
		t.Errorf("OpenStep should parse by default, got %v, %v", v, err)
	}

	if _, err := PropertyList(PropertyListOptions{}).Serialize(outcome(200, "", `<plist><dict><key>a</key></plist>`)); !IsParseFailure(err) {
		t.Errorf("expected parse failure, got %v", err)
	}
	if v, err := PropertyList(PropertyListOptions{}).Serialize(outcome(204, "", "")); err != nil || v != nil {
		t.Errorf("204 should yield nil, got %v, %v", v, err)
	}
}

func TestDownloadSerializers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "body.json")
	if err := os.WriteFile(path, []byte(`{"ok":true}`), 0o600); err != nil {
		t.Fatal(err)
	}
	resp := response(200, "application/json")

	v, err := DownloadJSON(JSONOptions{}).SerializeDownload(httpclient.DownloadResponse{Response: resp, DestinationPath: path})
	if err != nil || v.(map[string]any)["ok"] != true {
		t.Errorf("DownloadJSON() = %v, %v", v, err)
	}

	s, err := DownloadString(nil).SerializeDownload(httpclient.DownloadResponse{Response: response(200, "text/plain; charset=utf-8"), TemporaryPath: path})
	if err != nil || s != `{"ok":true}` {
		t.Errorf("DownloadString() from temp path = %q, %v", s, err)
	}

	tests := []struct {
		name   string
		out    httpclient.DownloadResponse
		reason Reason
	}{
		{"no file", httpclient.DownloadResponse{Response: resp}, ReasonInputFileNil},
		{"missing file", httpclient.DownloadResponse{Response: resp, DestinationPath: filepath.Join(dir, "gone")}, ReasonInputFileReadFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DownloadData().SerializeDownload(tt.out)
			if r, ok := ReasonOf(err); !ok || r != tt.reason {
				t.Errorf("expected %s, got %v", tt.reason, err)
			}
		})
	}

	cause := httpclient.NewCancelledError(nil)
	if _, err := DownloadPropertyList(PropertyListOptions{}).SerializeDownload(httpclient.DownloadResponse{Err: cause}); !errors.Is(err, cause) {
		t.Errorf("expected outcome error, got %v", err)
	}
}

func TestReason_String(t *testing.T) {
	for r, want := range map[Reason]string{
		ReasonEmptyData:                 "empty_data",
		ReasonJSONSerialization:         "json_serialization",
		ReasonPropertyListSerialization: "property_list_serialization",
		Reason(99):                      "unknown",
	} {
		if got := r.String(); got != want {
			t.Errorf("Reason(%d).String() = %q, want %q", r, got, want)
		}
	}
}

// fetch runs a GET against srv and returns its terminal outcome.
func fetch(t *testing.T, srv *testutil.Server, path string) httpclient.DataResponse {
	t.Helper()
	s, err := httpclient.New(httpclient.Config{BaseURL: srv.BaseURL()}, httpclient.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close(t.Context()) })

	req, err := s.Request(httpclient.RequestSpec{Method: http.MethodGet, URL: path})
	if err != nil {
		t.Fatal(err)
	}
	ch := make(chan httpclient.DataResponse, 1)
	req.Response(func(out httpclient.DataResponse) { ch <- out })
	select {
	case out := <-ch:
		return out
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for response")
		return httpclient.DataResponse{}
	}
}

func TestAgainstServer(t *testing.T) {
	srv := testutil.StartServer(t)

	text, err := String(nil).Serialize(fetch(t, srv, "/latin1"))
	if err != nil || text != testutil.Latin1Text {
		t.Errorf("/latin1 = %q, %v", text, err)
	}

	plistValue, err := PropertyList(PropertyListOptions{Formats: []int{FormatXML}}).Serialize(fetch(t, srv, "/plist"))
	if err != nil || plistValue.(map[string]any)["name"] != "rxhttp" {
		t.Errorf("/plist = %v, %v", plistValue, err)
	}

	empty, err := JSON(JSONOptions{}).Serialize(fetch(t, srv, "/empty"))
	if err != nil || empty != nil {
		t.Errorf("/empty = %v, %v", empty, err)
	}
}
