// Package httpclient is a callback-driven HTTP transport built on net/http.
//
// A Session creates live requests. Each request is a handle that runs on its
// own goroutine once resumed and finishes exactly once; callers observe it
// through callbacks rather than a blocking call:
//
//   - OnFinish and Response receive the terminal outcome
//   - ProgressCapability exposes upload and download progress callbacks
//   - Validate and its helpers turn unacceptable responses into errors
//   - Cancel stops the request; it is idempotent
//
// Three variants share this lifecycle: DataRequest keeps the body in
// memory, UploadRequest sends a body from bytes, a file or a stream, and
// DownloadRequest writes the body to a file and can be resumed.
//
// # Usage
//
//	s, _ := httpclient.New(httpclient.Config{BaseURL: "https://api.example.com"})
//	req, err := s.Request(httpclient.RequestSpec{
//	    Method:     http.MethodGet,
//	    URL:        "/users",
//	    Parameters: httpclient.Parameters{"page": 2},
//	})
//	if err != nil {
//	    return err // construction failed, nothing was sent
//	}
//	req.ValidateSuccess().Response(func(r httpclient.DataResponse) {
//	    fmt.Println(r.Response.StatusCode, len(r.Data), r.Err)
//	})
//
// Sessions created with DeferStart leave requests suspended until Resume.
package httpclient
