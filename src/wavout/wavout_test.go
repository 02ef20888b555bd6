package wavout

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/wav"
)

func TestWriteReadsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	left := []float32{0, 0.5, -0.5, 0.25}
	right := []float32{0.1, -0.1, 0.9, -0.9}
	if err := Write(path, 44100, 2, Interleave(left, right)); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		t.Fatal("invalid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatal(err)
	}
	if buf.Format.SampleRate != 44100 || buf.Format.NumChannels != 2 {
		t.Fatalf("unexpected format %+v", buf.Format)
	}
	if len(buf.Data) != 8 {
		t.Fatalf("expected 8 samples, got %d", len(buf.Data))
	}
	for i := range left {
		if math.Abs(float64(buf.Data[2*i]-left[i])) > 1e-3 || math.Abs(float64(buf.Data[2*i+1]-right[i])) > 1e-3 {
			t.Errorf("frame %d: got %v %v", i, buf.Data[2*i], buf.Data[2*i+1])
		}
	}
}

func TestWriteRejectsRaggedFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	if err := Write(path, 44100, 2, []float32{0, 0, 0}); err == nil {
		t.Error("expected an error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("no file should be created")
	}
}

func TestInterleavePadsShortSide(t *testing.T) {
	out := Interleave([]float32{1, 2, 3}, []float32{4})
	want := []float32{1, 4, 2, 0, 3, 0}
	if len(out) != len(want) {
		t.Fatalf("got %v", out)
	}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("got %v", out)
		}
	}
}
