package rx

import (
	"context"

	"github.com/kbukum/rxhttp/httpclient"
	"github.com/kbukum/rxhttp/stream"
)

// Progress is one progress sample of a transfer.
type Progress struct {
	BytesTransferred int64
	// TotalBytes is the expected size, 0 or -1 when unknown.
	TotalBytes int64
}

// CompletionRatio returns BytesTransferred/TotalBytes, or 0 when the total is
// unknown. It is not clamped to 1.
func (p Progress) CompletionRatio() float64 {
	if p.TotalBytes <= 0 {
		return 0
	}
	return float64(p.BytesTransferred) / float64(p.TotalBytes)
}

// BytesRemaining returns TotalBytes - BytesTransferred.
func (p Progress) BytesRemaining() int64 {
	return p.TotalBytes - p.BytesTransferred
}

// Done reports whether the sample completes a transfer of known size.
func (p Progress) Done() bool {
	return p.TotalBytes > 0 && p.BytesTransferred >= p.TotalBytes
}

// ObserveProgress streams the progress of req. Uploads report bytes sent;
// downloads and data requests report bytes received. The stream starts with
// Progress{0, 0} and completes with the first sample that reaches a known
// total. Otherwise it runs until closed.
func ObserveProgress(req LiveRequest) *stream.Stream[Progress] {
	return stream.Create(func(_ context.Context, e stream.Emitter[Progress]) (func(), error) {
		e.Next(Progress{})

		pc := req.ProgressCapability()
		register := pc.Download
		if pc.Upload != nil {
			register = pc.Upload
		}
		if register == nil {
			return nil, nil
		}
		return register(func(completed, total int64) {
			p := Progress{BytesTransferred: completed, TotalBytes: total}
			if e.Next(p) && p.Done() {
				e.Complete()
			}
		}), nil
	})
}

// progressOf lets callers observe progress on any live request type.
func progressOf[R LiveRequest](s *stream.Stream[R]) *stream.Stream[Progress] {
	return stream.Then(s, func(r R) *stream.Stream[Progress] {
		return ObserveProgress(r)
	})
}

var _ LiveRequest = (*httpclient.DataRequest)(nil)
var _ LiveRequest = (*httpclient.UploadRequest)(nil)
var _ LiveRequest = (*httpclient.DownloadRequest)(nil)
