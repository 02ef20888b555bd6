//go:build !headless

package device

import (
	"context"
	"fmt"
	"io"

	"github.com/hajimehoshi/oto"
	"github.com/sirupsen/logrus"
)

// Play copies 16 bit stereo from src to the sound card until ctx is done
// or src ends.
func Play(ctx context.Context, src io.Reader, sampleRate int) error {
	otoContext, err := oto.NewContext(sampleRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return fmt.Errorf("failed to open audio device: %w", err)
	}
	defer func() {
		if err := otoContext.Close(); err != nil {
			logrus.WithError(err).Error("failed to close audio device")
		}
	}()
	p := otoContext.NewPlayer()
	defer func() {
		if err := p.Close(); err != nil {
			logrus.WithError(err).Error("failed to close player")
		}
	}()

	// block until ctx is done
	if _, err := io.CopyBuffer(p, &contextReader{ctx: ctx, src: src}, make([]byte, bufferSizeInBytes)); err != nil {
		return err
	}
	logrus.Debug("playback ended")
	return nil
}
