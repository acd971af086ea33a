package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/urfave/cli"
	"golang.org/x/sync/errgroup"

	"github.com/valerio/go-pcmbridge/pcmbridge/backend"
	"github.com/valerio/go-pcmbridge/pcmbridge/config"
	"github.com/valerio/go-pcmbridge/pcmbridge/control"
	"github.com/valerio/go-pcmbridge/pcmbridge/machine"
	"github.com/valerio/go-pcmbridge/pcmbridge/monitor"
	"github.com/valerio/go-pcmbridge/pcmbridge/sink"
	"github.com/valerio/go-pcmbridge/pcmbridge/synth"
	"github.com/valerio/go-pcmbridge/pcmbridge/timing"
)

var commonFlags = []cli.Flag{
	cli.StringFlag{
		Name:   "backend",
		Usage:  "Audio backend: " + backendNames(),
		EnvVar: config.EnvDevice,
	},
	cli.IntFlag{
		Name:   "rate",
		Usage:  "Native sample rate of the emulated machine (48000, 44100, 22050, 11025)",
		EnvVar: config.EnvRate,
	},
	cli.IntFlag{
		Name:   "throttle",
		Usage:  "Emulation speed in percent of native, 0 = unthrottled",
		EnvVar: config.EnvThrottle,
	},
	cli.BoolFlag{
		Name:   "speedup",
		Usage:  "Run as fast as possible, dropping audio that does not fit",
		EnvVar: config.EnvSpeedUp,
	},
	cli.BoolFlag{
		Name:   "link",
		Usage:  "Pretend an external link paces emulation (audio never blocks)",
		EnvVar: config.EnvLink,
	},
	cli.IntFlag{
		Name:   "buffer-ms",
		Usage:  "Sample ring length in milliseconds",
		EnvVar: config.EnvBufferMS,
	},
	cli.DurationFlag{
		Name:  "duration",
		Usage: "Stop after this much emulated time (0 = until interrupted)",
	},
	cli.StringFlag{
		Name:  "env",
		Usage: "Load options from this .env file (default: ./.env if present)",
	},
	cli.BoolFlag{
		Name:  "monitor",
		Usage: "Show a live terminal view of the audio path",
	},
	cli.BoolFlag{
		Name:  "verbose",
		Usage: "Enable debug logging",
	},
}

func main() {
	app := cli.NewApp()
	app.Name = "pcmbridge"
	app.Description = "Emulator audio bridge: runs a synthetic sound chip into a host audio device"
	app.Usage = "pcmbridge [command] [options]"
	app.Version = "1.0.0"
	app.Flags = commonFlags
	app.Action = runPlay
	app.Commands = []cli.Command{
		{
			Name:   "play",
			Usage:  "Play through a host audio backend",
			Flags:  commonFlags,
			Action: runPlay,
		},
		{
			Name:  "record",
			Usage: "Record the device stream to a WAV file",
			Flags: append([]cli.Flag{
				cli.StringFlag{
					Name:  "out",
					Usage: "Output WAV file",
					Value: "pcmbridge.wav",
				},
			}, commonFlags...),
			Action: runRecord,
		},
		{
			Name:   "backends",
			Usage:  "List audio backends",
			Action: listBackends,
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		slog.Error("Error running pcmbridge", "error", err)
		os.Exit(1)
	}
}

func runPlay(c *cli.Context) error {
	values, err := loadValues(c)
	if err != nil {
		return err
	}
	b, err := selectBackend(values.Device, "")
	if err != nil {
		return err
	}
	return run(c, values, b)
}

func runRecord(c *cli.Context) error {
	if c.Duration("duration") <= 0 {
		cli.ShowCommandHelp(c, "record")
		return errors.New("record requires --duration with a positive value")
	}
	values, err := loadValues(c)
	if err != nil {
		return err
	}
	values.Device = "wav"
	b, err := selectBackend(values.Device, c.String("out"))
	if err != nil {
		return err
	}
	return run(c, values, b)
}

func listBackends(c *cli.Context) error {
	for _, name := range backendOrder {
		fmt.Println(name)
	}
	return nil
}

// loadValues layers defaults, a .env file (./.env unless --env names one),
// the environment and explicitly set flags.
func loadValues(c *cli.Context) (config.Values, error) {
	var files []string
	if path := c.String("env"); path != "" {
		files = append(files, path)
	}
	values, err := config.Load(files...)
	if err != nil {
		return values, err
	}

	if c.IsSet("backend") {
		values.Device = c.String("backend")
	}
	if c.IsSet("rate") {
		values.SampleRate = c.Int("rate")
	}
	if c.IsSet("throttle") {
		throttle, err := throttleFlag(c.Int("throttle"))
		if err != nil {
			return values, err
		}
		values.Throttle = throttle
	}
	if c.IsSet("speedup") {
		values.SpeedUp = c.Bool("speedup")
	}
	if c.IsSet("link") {
		values.LinkActive = c.Bool("link")
	}
	if c.IsSet("buffer-ms") {
		values.Buffer = time.Duration(c.Int("buffer-ms")) * time.Millisecond
	}

	if err := values.Validate(); err != nil {
		return values, err
	}
	return values, nil
}

// throttleFlag range-checks before narrowing so large values cannot wrap to 0.
func throttleFlag(n int) (uint16, error) {
	if n < 0 || n > config.MaxThrottle {
		return 0, fmt.Errorf("%w: throttle %d outside 0..%d", config.ErrInvalid, n, config.MaxThrottle)
	}
	return uint16(n), nil
}

func run(c *cli.Context, values config.Values, b backend.Backend) error {
	level := &slog.LevelVar{}
	if c.Bool("verbose") {
		level.Set(slog.LevelDebug)
	}

	var logs *monitor.LogBuffer
	if c.Bool("monitor") {
		logs = monitor.NewLogBuffer(200)
		slog.SetDefault(slog.New(monitor.NewLogBufferHandler(logs, level)))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	}

	store := config.NewStore(values)
	src, err := synth.New(values.SampleRate, synth.Demo()...)
	if err != nil {
		return err
	}

	var opts []machine.Option
	if d := c.Duration("duration"); d > 0 {
		frames := uint64(d.Seconds() * timing.TargetFPS())
		opts = append(opts, machine.WithMaxFrames(max(1, frames)))
	}
	m := machine.New(src, store, opts...)

	s := sink.New(b,
		sink.WithSettings(store),
		sink.WithRunning(m.Running),
		sink.WithBufferDuration(values.Buffer))

	store.OnChange(func(o config.Option) {
		if o != config.OptThrottle {
			return
		}
		s.SetThrottle(store.Throttle())
		if err := s.Reset(); err != nil {
			slog.Warn("Failed to reopen audio device at new throttle", "throttle", store.Throttle(), "error", err)
		}
	})

	slog.Info("Starting pcmbridge",
		"backend", b.Name(),
		"rate", values.SampleRate,
		"throttle", values.Throttle,
		"speedup", values.SpeedUp,
		"link", values.LinkActive,
		"buffer", values.Buffer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, quit := context.WithCancel(ctx)
	defer quit()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// the monitor follows the machine out
		defer quit()
		return m.Run(ctx, s)
	})

	if logs != nil {
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to initialize terminal: %v", err)
		}

		input := control.NewManager()
		control.BindDefaults(input, control.Targets{
			Emulation:   m,
			Options:     store,
			Mixer:       src,
			LogLevel:    level,
			MaxThrottle: config.MaxThrottle,
			Quit:        quit,
		})

		mon := monitor.New(screen, monitor.Sources{Audio: s, Options: store, Emulation: m}, input, logs)
		g.Go(func() error {
			return mon.Run(ctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	stats := s.Stats()
	slog.Info("Finished",
		"frames", m.Frames(),
		"written_frames", stats.WrittenFrames,
		"dropped_frames", stats.DroppedFrames,
		"underruns", stats.Underruns)
	return nil
}
