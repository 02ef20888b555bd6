// Package device plays an engine's output on the default audio device.
package device

import (
	"context"
	"io"
)

const (
	channelNum        = 2
	bitDepthInBytes   = 2
	bytesPerFrame     = bitDepthInBytes * channelNum
	framesPerCycle    = 1024
	bufferSizeInBytes = framesPerCycle * bytesPerFrame // should be >= 4096
)

// contextReader ends the stream once ctx is done.
type contextReader struct {
	ctx context.Context
	src io.Reader
}

func (r *contextReader) Read(buf []byte) (int, error) {
	select {
	case <-r.ctx.Done():
		return 0, io.EOF
	default:
	}
	return r.src.Read(buf)
}
