package main

import (
	"flag"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/jinjor/ambient-synth/src/audio"
	"github.com/jinjor/ambient-synth/src/wavout"
	"github.com/sirupsen/logrus"
)

const blockFrames = 128

func main() {
	notesFlag := flag.String("notes", "60", "comma separated MIDI notes played together")
	velocity := flag.Int("velocity", 100, "MIDI velocity (1-127)")
	releaseAfter := flag.Float64("release-after", 1.0, "send note-off after this many seconds")
	maxDuration := flag.Float64("max-duration", 20.0, "maximum render duration in seconds")
	decayDBFS := flag.Float64("decay-dbfs", -90, "stop once the block RMS after release stays below this dBFS")
	sampleRate := flag.Int("rate", audio.DefaultConfig().SampleRate, "sample rate")
	paramsFile := flag.String("params", "", "JSON file with parameters")
	output := flag.String("output", "output.wav", "output WAV path")
	flag.Parse()

	notes, err := parseNotes(*notesFlag)
	if err != nil {
		logrus.Fatalf("error: %v", err)
	}
	config := audio.DefaultConfig()
	config.SampleRate = *sampleRate
	engine, err := audio.NewEngine(config)
	if err != nil {
		logrus.Fatalf("error: %v", err)
	}
	defer engine.Close()
	if *paramsFile != "" {
		data, err := os.ReadFile(*paramsFile)
		if err != nil {
			logrus.Fatalf("error: %v", err)
		}
		if err := engine.ApplyJSON(data); err != nil {
			logrus.WithError(err).Warn("some parameters were not applied")
		}
	}
	engine.WaitIR()

	logrus.WithFields(logrus.Fields{
		"notes":    notes,
		"velocity": *velocity,
		"rate":     *sampleRate,
	}).Info("rendering")
	for _, n := range notes {
		engine.NoteOn(n, *velocity)
	}

	threshold := math.Pow(10, *decayDBFS/20)
	releaseAt := int(*releaseAfter * float64(*sampleRate))
	maxFrames := int(*maxDuration * float64(*sampleRate))
	block := make([]float32, blockFrames*2)
	samples := make([]float32, 0, releaseAt*2)
	released := false
	below := 0
	frames := 0
	for frames < maxFrames {
		if !released && frames >= releaseAt {
			for _, n := range notes {
				engine.NoteOff(n)
			}
			released = true
		}
		engine.Process(block)
		samples = append(samples, block...)
		frames += blockFrames
		if released && engine.ActiveVoices() == 0 && stereoRMS(block) < threshold {
			below++
			// let effect tails ring below the threshold for a while
			if below >= 8 {
				break
			}
		} else {
			below = 0
		}
	}

	if err := wavout.Write(*output, *sampleRate, 2, samples); err != nil {
		logrus.Fatalf("error: %v", err)
	}
	logrus.Infof("Successfully wrote %s (%d frames)", *output, frames)
}

func parseNotes(s string) ([]int, error) {
	var notes []int
	for _, item := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(item))
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}

func stereoRMS(interleaved []float32) float64 {
	if len(interleaved) == 0 {
		return 0
	}
	var sum float64
	for _, s := range interleaved {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(interleaved)))
}
