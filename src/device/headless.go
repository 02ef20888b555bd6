//go:build headless

package device

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Play pulls audio from src in real time and discards it.
func Play(ctx context.Context, src io.Reader, sampleRate int) error {
	logrus.Info("headless build: audio output is discarded")
	buf := make([]byte, bufferSizeInBytes)
	t := time.NewTicker(time.Second * framesPerCycle / time.Duration(sampleRate))
	defer t.Stop()
	r := &contextReader{ctx: ctx, src: src}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}
