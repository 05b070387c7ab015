package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/rxhttp/component"
)

// RecordedRequest is a request received by Server.
type RecordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// Echo is the JSON document returned by the /echo endpoint.
type Echo struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Query   map[string]string `json:"query"`
	Headers map[string]string `json:"headers"`
	Body    string            `json:"body"`
}

// Latin1Text is the body served by /latin1, encoded as ISO-8859-1.
const Latin1Text = "café crème"

// PropertyList is the document served by /plist.
const PropertyList = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>name</key>
	<string>rxhttp</string>
	<key>count</key>
	<integer>3</integer>
</dict>
</plist>
`

// Server is an HTTP server for client tests. It implements TestComponent.
type Server struct {
	name   string
	srv    *httptest.Server
	engine *gin.Engine

	mu       sync.Mutex
	requests []RecordedRequest
}

var _ TestComponent = (*Server)(nil)

// NewServer creates a server. It listens once started.
func NewServer() *Server {
	gin.SetMode(gin.TestMode)
	s := &Server{name: "test-server", engine: gin.New()}
	s.routes()
	return s
}

// Name returns the component name.
func (s *Server) Name() string { return s.name }

// Start begins listening on a random local port.
func (s *Server) Start(_ context.Context) error {
	if s.srv != nil {
		return fmt.Errorf("testutil: server already started")
	}
	s.srv = httptest.NewServer(s.engine)
	return nil
}

// Stop drops open connections and shuts the server down.
func (s *Server) Stop(_ context.Context) error {
	if s.srv == nil {
		return nil
	}
	s.srv.CloseClientConnections()
	s.srv.Close()
	s.srv = nil
	return nil
}

// Health reports healthy while the server is listening.
func (s *Server) Health(_ context.Context) component.Health {
	if s.srv == nil {
		return component.Health{Name: s.name, Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: s.name, Status: component.StatusHealthy, Message: s.srv.URL}
}

// Reset forgets recorded requests.
func (s *Server) Reset(_ context.Context) error {
	s.mu.Lock()
	s.requests = nil
	s.mu.Unlock()
	return nil
}

// URL returns the absolute URL of path on the server.
func (s *Server) URL(path string) string {
	return s.srv.URL + path
}

// BaseURL returns the server root URL.
func (s *Server) BaseURL() string {
	return s.srv.URL
}

// Engine exposes the gin engine so tests can add routes before Start.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Requests returns the requests received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest(nil), s.requests...)
}

// FileContent returns the deterministic body served by /files/:n.
func FileContent(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + i%26)
	}
	return b
}

func (s *Server) routes() {
	r := s.engine
	r.Use(s.record)

	r.Any("/echo", func(c *gin.Context) {
		body, _ := c.Get("body")
		e := Echo{
			Method:  c.Request.Method,
			Path:    c.Request.URL.Path,
			Query:   map[string]string{},
			Headers: map[string]string{},
			Body:    string(body.([]byte)),
		}
		for k, v := range c.Request.URL.Query() {
			e.Query[k] = v[0]
		}
		for k, v := range c.Request.Header {
			e.Headers[k] = v[0]
		}
		c.JSON(http.StatusOK, e)
	})

	r.Any("/status/:code", func(c *gin.Context) {
		code, err := strconv.Atoi(c.Param("code"))
		if err != nil {
			c.String(http.StatusBadRequest, "bad status")
			return
		}
		c.String(code, "status %d", code)
	})

	r.GET("/bytes/:n", func(c *gin.Context) {
		n, err := strconv.Atoi(c.Param("n"))
		if err != nil || n < 0 {
			c.String(http.StatusBadRequest, "bad size")
			return
		}
		c.Header("Content-Length", strconv.Itoa(n))
		c.Data(http.StatusOK, "application/octet-stream", FileContent(n))
	})

	r.GET("/json", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": "rxhttp", "count": 3})
	})

	r.GET("/text", func(c *gin.Context) {
		c.String(http.StatusOK, "hello, world")
	})

	r.GET("/latin1", func(c *gin.Context) {
		body := make([]byte, 0, len(Latin1Text))
		for _, ch := range Latin1Text {
			body = append(body, byte(ch))
		}
		c.Data(http.StatusOK, "text/plain; charset=iso-8859-1", body)
	})

	r.GET("/plist", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/x-plist", []byte(PropertyList))
	})

	r.GET("/empty", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	r.GET("/redirect", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/json")
	})

	r.GET("/delay/:ms", func(c *gin.Context) {
		ms, _ := strconv.Atoi(c.Param("ms"))
		select {
		case <-time.After(time.Duration(ms) * time.Millisecond):
			c.String(http.StatusOK, "done")
		case <-c.Request.Context().Done():
		}
	})

	// /files/:n serves FileContent(n) with range support. With fail_after
	// set and no Range header the connection is dropped after that many bytes.
	r.GET("/files/:n", func(c *gin.Context) {
		n, err := strconv.Atoi(c.Param("n"))
		if err != nil || n < 0 {
			c.String(http.StatusBadRequest, "bad size")
			return
		}
		content := FileContent(n)
		w := c.Writer
		w.Header().Set("ETag", fmt.Sprintf(`"file-%d"`, n))
		w.Header().Set("Content-Type", "application/octet-stream")

		if failAfter, err := strconv.Atoi(c.Query("fail_after")); err == nil && c.GetHeader("Range") == "" {
			w.Header().Set("Content-Length", strconv.Itoa(n))
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(content[:min(failAfter, n)])
			w.Flush()
			panic(http.ErrAbortHandler)
		}
		http.ServeContent(w, c.Request, "file", time.Time{}, bytes.NewReader(content))
	})

	r.POST("/multipart", func(c *gin.Context) {
		form, err := c.MultipartForm()
		if err != nil {
			c.String(http.StatusBadRequest, err.Error())
			return
		}
		fields := map[string]string{}
		for k, v := range form.Value {
			fields[k] = v[0]
		}
		files := map[string]string{}
		for k, fhs := range form.File {
			fh := fhs[0]
			f, err := fh.Open()
			if err != nil {
				c.String(http.StatusInternalServerError, err.Error())
				return
			}
			data, _ := io.ReadAll(f)
			_ = f.Close()
			files[k] = fh.Filename + ":" + string(data)
		}
		c.JSON(http.StatusOK, gin.H{"fields": fields, "files": files})
	})
}

func (s *Server) record(c *gin.Context) {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
		_ = c.Request.Body.Close()
	}
	if body == nil {
		body = []byte{}
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	c.Set("body", body)

	s.mu.Lock()
	s.requests = append(s.requests, RecordedRequest{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Query:  c.Request.URL.RawQuery,
		Header: c.Request.Header.Clone(),
		Body:   body,
	})
	s.mu.Unlock()
	c.Next()
}
