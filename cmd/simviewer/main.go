package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gekko3d/simviewer"
	"github.com/gekko3d/simviewer/feed"
	"github.com/gekko3d/simviewer/memhost"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	previewPath string
	previewW    int
	previewH    int
	fontPath    string
	lights      bool
}

func parseFlags() options {
	var o options
	flag.StringVar(&o.configPath, "config", os.Getenv("SIMVIEWER_CONFIG"), "TOML or YAML configuration file")
	flag.StringVar(&o.previewPath, "preview", "", "write a PNG preview of the scene here on shutdown")
	flag.IntVar(&o.previewW, "preview-width", 960, "preview width in pixels")
	flag.IntVar(&o.previewH, "preview-height", 440, "preview height in pixels")
	flag.StringVar(&o.fontPath, "font", "", "OpenType font for the preview caption")
	flag.BoolVar(&o.lights, "lights", false, "build the fixed lights at start")
	flag.Parse()
	return o
}

func run() error {
	opts := parseFlags()

	// 1. Load config
	cfg := simviewer.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if cfg, err = simviewer.LoadConfig(opts.configPath); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	if opts.lights {
		cfg.Lights.Enabled = true
	}

	// 2. Init logger
	log, err := simviewer.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if zl, ok := log.(*simviewer.ZapLogger); ok {
		defer zl.Sync()
	}

	// 3. Build the viewer on the in-memory scene graph
	host := memhost.New()
	host.HeadLengthRatio = cfg.Vectors.HeadLengthRatio
	viewer, err := simviewer.NewViewerBuilder().
		UseConfig(cfg).
		UseHost(host).
		UseLogger(log).
		Build()
	if err != nil {
		return fmt.Errorf("viewer: %w", err)
	}

	// 4. Start the feed
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := feed.NewServer(viewer, cfg.Feed)
	serveErr := make(chan error, 1)
	go func() { serveErr <- server.ListenAndServe(ctx) }()

	// 5. Wait for shutdown, reporting now and then
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	interval := cfg.Feed.StatusInterval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cfg.Feed.StatusInterval > 0 {
				report(viewer, server, log)
			}
		case err := <-serveErr:
			if err != nil {
				return fmt.Errorf("feed: %w", err)
			}
			return shutdown(viewer, host, opts, log)
		case sig := <-shutdownCh:
			log.Infof("received %s, shutting down", sig)
			cancel()
			<-serveErr
			return shutdown(viewer, host, opts, log)
		}
	}
}

func report(v *simviewer.Viewer, s *feed.Server, log simviewer.Logger) {
	var buf bytes.Buffer
	v.ReportSettings(&buf)
	applied, rejected := s.Stats()
	fmt.Fprintf(&buf, "feed clients    : %d\tapplied: %d\t  rejected: %d\n", s.Clients(), applied, rejected)
	log.Infof("status\n%s", buf.String())
}

func shutdown(v *simviewer.Viewer, host *memhost.Host, opts options, log simviewer.Logger) error {
	if opts.previewPath != "" {
		if err := writePreview(v, host, opts); err != nil {
			log.Errorf("preview: %v", err)
		} else {
			log.Infof("preview written to %s", opts.previewPath)
		}
	}
	if err := v.Stop(); err != nil {
		return fmt.Errorf("stop viewer: %w", err)
	}
	st := host.Stats()
	log.Infof("stopped: %d nodes created, %d destroyed, %d left", st.Created, st.Destroyed, st.Live)
	return nil
}

func writePreview(v *simviewer.Viewer, host *memhost.Host, opts options) error {
	p := memhost.NewPreview(opts.previewW, opts.previewH)
	if opts.fontPath != "" {
		if err := p.LoadFace(opts.fontPath, 14); err != nil {
			return err
		}
	}
	sc := v.Scene()
	c := v.Registry().Counts()
	caption := fmt.Sprintf("tick %d  points %d  lines %d  vectors %d",
		v.Registry().Tick(), c.Points, c.Lines, c.Vectors)
	img := p.Render(host, sc.Offset, sc.Size, caption)

	f, err := os.Create(opts.previewPath)
	if err != nil {
		return err
	}
	if err := memhost.WritePNG(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
