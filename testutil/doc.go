// Package testutil provides test infrastructure for rxhttp packages.
//
// Test components follow the component lifecycle and add Reset so a single
// instance can be shared between test cases:
//
//	func TestDownload(t *testing.T) {
//	    srv := testutil.NewServer()
//	    testutil.T(t).Setup(srv)
//	    resp, err := http.Get(srv.URL("/files/1024"))
//	    ...
//	}
//
// Server is a gin engine behind httptest exposing the endpoints the client
// tests need: echo, status codes, sized bodies, range-capable files that can
// drop the connection half way, charset-tagged text and property lists.
// Every request it receives is recorded and can be inspected with Requests.
package testutil
