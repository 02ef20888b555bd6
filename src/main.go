package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/jinjor/ambient-synth/src/audio"
	"github.com/jinjor/ambient-synth/src/device"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultSockFileName = "/tmp/ambient-synth.sock"

func main() {
	sockFileName := flag.String("sock", defaultSockFileName, "unix socket to listen on")
	sampleRate := flag.Int("rate", audio.DefaultConfig().SampleRate, "sample rate")
	polyphony := flag.Int("polyphony", audio.DefaultConfig().MaxPolyphony, "max polyphony")
	paramsFile := flag.String("params", "", "JSON file with initial parameters")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()
	logrus.SetReportCaller(true)
	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.Infof("NumCPU: %v", runtime.NumCPU())

	ctx := context.Background()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	config := audio.DefaultConfig()
	config.SampleRate = *sampleRate
	config.MaxPolyphony = *polyphony
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
	sequencer := audio.NewSequencer(engine)
	defer sequencer.Stop()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(signalCh)
		cancel()
	}()
	go func() {
		sig := <-signalCh
		logrus.Infof("Caught signal %s: shutting down...", sig)
		cancel()
	}()
	err = withIPCConnection(ctx, *sockFileName, func(conn net.Conn) error {
		w := &lineWriter{w: conn}
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return device.Play(ctx, engine, engine.SampleRate())
		})
		g.Go(func() error {
			err := receiveCommands(ctx, conn, w, engine, sequencer)
			// the client is gone, stop the rest
			cancel()
			return err
		})
		g.Go(func() error {
			return sendReports(ctx, w, engine)
		})
		return g.Wait()
	})
	if err != nil {
		logrus.Fatalf("error: %v", err)
	}
	logrus.Info("main() ended.")
}

func withIPCConnection(ctx context.Context, sockFileName string, f func(net.Conn) error) error {
	os.Remove(sockFileName)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", sockFileName)
	if err != nil {
		return err
	}
	defer func() {
		logrus.Info("Closing IPC...")
		err := listener.Close()
		if err != nil {
			logrus.WithError(err).Error("error while closing listener")
		}
		os.Remove(sockFileName)
	}()
	logrus.WithField("sock", sockFileName).Info("start listening...")
	conn, err := listener.Accept()
	if err != nil {
		return err
	}
	defer func() {
		err := conn.Close()
		if err != nil {
			logrus.WithError(err).Error("error while closing connection")
		}
	}()
	return f(conn)
}

// lineWriter serializes replies and reports on the connection.
type lineWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lineWriter) writeLine(s string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := io.WriteString(l.w, s+"\n")
	return err
}

func receiveCommands(ctx context.Context, conn net.Conn, w *lineWriter, engine *audio.Engine, sequencer *audio.Sequencer) error {
	stop := context.AfterFunc(ctx, func() {
		// unblock ReadLine
		conn.SetReadDeadline(time.Now())
	})
	defer stop()
	reader := bufio.NewReader(conn)
	var line []byte
loop:
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Connection interrupted")
			break loop
		default:
		}
		next, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break loop
		}
		if err != nil {
			if ctx.Err() != nil {
				break loop
			}
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		logrus.Debugf("received: %s", string(line))
		command, err := parseCommand(string(line))
		line = []byte{}
		if err != nil {
			logrus.WithError(err).Warn("bad command")
			continue
		}
		if err := handleCommand(ctx, command, w, engine, sequencer); err != nil {
			logrus.WithError(err).WithField("command", command[0]).Warn("command failed")
		}
	}
	logrus.Info("receiveCommands() ended.")
	return nil
}

func parseCommand(line string) ([]string, error) {
	lineStr := strings.Split(strings.TrimSpace(line), " ")
	for i, item := range lineStr {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		lineStr[i] = escaped
	}
	if lineStr[0] == "" {
		return nil, fmt.Errorf("empty command")
	}
	return lineStr, nil
}

func handleCommand(ctx context.Context, command []string, w *lineWriter, engine *audio.Engine, sequencer *audio.Sequencer) error {
	args := command[1:]
	switch command[0] {
	case "note_on":
		if len(args) != 2 {
			return fmt.Errorf("usage: note_on <note> <velocity>")
		}
		nums, err := parseInts(args)
		if err != nil {
			return err
		}
		engine.NoteOn(nums[0], nums[1])
	case "note_off":
		if len(args) != 1 {
			return fmt.Errorf("usage: note_off <note>")
		}
		nums, err := parseInts(args)
		if err != nil {
			return err
		}
		engine.NoteOff(nums[0])
	case "all_notes_off":
		engine.AllNotesOff()
	case "all_sound_off":
		sequencer.Stop()
		engine.AllSoundOff()
	case "set":
		if len(args) != 2 {
			return fmt.Errorf("usage: set <name> <value>")
		}
		return engine.SetParam(args[0], args[1])
	case "get":
		return w.writeLine("params " + string(engine.ToJSON()))
	case "seq":
		if len(args) == 0 {
			return fmt.Errorf("usage: seq start <bpm> <note>... | seq stop")
		}
		switch args[0] {
		case "start":
			if len(args) < 3 {
				return fmt.Errorf("usage: seq start <bpm> <note>...")
			}
			bpm, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return err
			}
			notes, err := parseInts(args[2:])
			if err != nil {
				return err
			}
			return sequencer.Start(ctx, audio.Pattern{
				BPM:      bpm,
				Notes:    notes,
				Velocity: 100,
				Gate:     0.8,
			})
		case "stop":
			sequencer.Stop()
		default:
			return fmt.Errorf("unknown seq command: %s", args[0])
		}
	default:
		return fmt.Errorf("unknown command: %s", command[0])
	}
	return nil
}

func parseInts(args []string) ([]int, error) {
	nums := make([]int, len(args))
	for i, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, err
		}
		nums[i] = n
	}
	return nums, nil
}

func sendReports(ctx context.Context, w *lineWriter, engine *audio.Engine) error {
	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			logrus.Info("sendReports() interrupted")
			break loop
		case <-t.C:
			var sb strings.Builder
			sb.WriteString("fft")
			for _, value := range engine.Spectrum() {
				sb.WriteString(" ")
				sb.WriteString(strconv.FormatFloat(value, 'f', 2, 64))
			}
			level := engine.Level()
			if err := w.writeLine(sb.String()); err != nil {
				return err
			}
			if err := w.writeLine(fmt.Sprintf("level %.6f %.6f", level.Peak, level.RMS)); err != nil {
				return err
			}
		}
	}
	logrus.Info("sendReports() ended.")
	return nil
}
