package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jinjor/ambient-synth/src/audio"
	"github.com/jinjor/ambient-synth/src/wavout"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	decays := flag.String("decays", "2,8,20", "comma separated decay times in seconds")
	damping := flag.Float64("damping", 0.5, "damping (0-1)")
	width := flag.Float64("width", 0.8, "stereo width (0-1)")
	sampleRate := flag.Int("rate", audio.DefaultConfig().SampleRate, "sample rate")
	seed := flag.Int64("seed", 1, "noise seed")
	flag.Parse()
	dir := flag.Arg(0)
	if dir == "" {
		logrus.Fatal("dir is not passed")
	}

	ctx := context.Background()
	g, ctx := errgroup.WithContext(ctx)
	for _, item := range strings.Split(*decays, ",") {
		decay, err := strconv.ParseFloat(strings.TrimSpace(item), 64)
		if err != nil {
			logrus.Fatalf("error: %v", err)
		}
		cfg := audio.IRConfig{
			SampleRate:  *sampleRate,
			Decay:       decay,
			Damping:     *damping,
			StereoWidth: *width,
			Seed:        *seed,
		}
		g.Go(func() error {
			left, right, err := audio.GenerateLongIR(ctx, cfg)
			if err != nil {
				return fmt.Errorf("decay %v: %w", cfg.Decay, err)
			}
			logrus.WithField("decay", cfg.Decay).Info("generated impulse response")
			path := filepath.Join(dir, fmt.Sprintf("long_reverb_%gs.wav", cfg.Decay))
			if err := wavout.Write(path, cfg.SampleRate, 2, wavout.Interleave(left, right)); err != nil {
				return err
			}
			logrus.WithField("path", path).Info("saved impulse response")
			return nil
		})
	}
	err := g.Wait()
	if err != nil {
		logrus.Fatalf("error: %v", err)
	}
	logrus.Info("Successfully generated impulse responses.")
}
