// Package rx exposes the callback-driven httpclient transport as lazy
// streams.
//
// Every stream is cold: nothing is sent until it is subscribed, and each
// subscription creates its own live request. A subscription yields the live
// request first, then exactly one terminal event. Closing the iterator
// before the terminal event cancels the request.
//
//	client := rx.NewClient(session)
//	v, err := stream.First(ctx, client.JSON(http.MethodGet, "/users/1"))
//
// Decoding comes in two forms. With-metadata streams (ResponseJSON,
// ResponseData, ...) emit a DecodedResult and accept any status code.
// Value-only streams (JSON, Data, ...) first require a 2xx status and emit
// only the decoded value.
package rx
