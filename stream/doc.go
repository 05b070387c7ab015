// Package stream provides lazy, pull-based streams and a bridge that turns
// callback-driven operations into streams.
//
// Streams are lazy: nothing happens until a consumer subscribes by calling
// Iter, Collect, Drain, ForEach, First or Last. Each stage pulls from the
// previous one on demand.
//
// # Bridging callbacks
//
// Create wraps an operation that reports through callbacks. The subscribe
// function runs synchronously on subscription, may emit from any goroutine,
// and returns a dispose function that runs exactly once when the consumer
// receives the terminal event or closes the iterator:
//
//	s := stream.Create(func(ctx context.Context, e stream.Emitter[int]) (func(), error) {
//	    op := start(func(v int) { e.Next(v) }, func(err error) {
//	        if err != nil {
//	            e.Error(err)
//	            return
//	        }
//	        e.Complete()
//	    })
//	    return op.Cancel, nil
//	})
//
// # Operators
//
//   - Map, FlatMap, Then: transform values
//   - Filter, Tap: select values or observe them
//   - Concat, StartWith: sequence streams
//   - Merge: interleave streams concurrently (order NOT preserved)
//   - Throttle: drop values arriving faster than an interval
package stream
