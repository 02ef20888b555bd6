// Package wavout writes interleaved float samples to 16 bit WAV files.
package wavout

import (
	"fmt"
	"os"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

const bitDepth = 16

// Write stores interleaved samples with numChannels channels at path.
func Write(path string, sampleRate int, numChannels int, samples []float32) error {
	if numChannels < 1 || len(samples)%numChannels != 0 {
		return fmt.Errorf("%d samples do not fit %d channels", len(samples), numChannels)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	encoder := wav.NewEncoder(file, sampleRate, bitDepth, numChannels, 1)
	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: numChannels,
		},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := encoder.Write(buf); err != nil {
		encoder.Close()
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finish %s: %w", path, err)
	}
	return nil
}

// Interleave merges a stereo pair into one slice.
func Interleave(left []float32, right []float32) []float32 {
	n := max(len(left), len(right))
	out := make([]float32, 2*n)
	for i := 0; i < n; i++ {
		if i < len(left) {
			out[2*i] = left[i]
		}
		if i < len(right) {
			out[2*i+1] = right[i]
		}
	}
	return out
}
