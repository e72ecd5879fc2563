package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/gekko3d/compass"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "", "TOML config file")
	assetRoot := flag.String("assets", "", "asset root directory")
	model := flag.String("model", "", "model path relative to the asset root")
	env := flag.String("env", "", "environment map path relative to the asset root")
	debug := flag.Bool("debug", false, "enable debug logging")
	watch := flag.Bool("watch", false, "reload the environment map when it changes")
	mobile := flag.Bool("mobile", false, "disable pointer distortion")
	width := flag.Int("width", 0, "window width")
	height := flag.Int("height", 0, "window height")
	seed := flag.Int64("seed", 0, "random seed, 0 for time based")
	flag.Parse()

	cfg := compass.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = compass.LoadConfig(*configPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "assets":
			cfg.AssetRoot = *assetRoot
		case "model":
			cfg.ModelPath = *model
		case "env":
			cfg.EnvironmentPath = *env
		case "debug":
			cfg.Debug = *debug
		case "watch":
			cfg.WatchAssets = *watch
		case "mobile":
			cfg.Mobile = *mobile
		case "width":
			cfg.Window.Width = *width
		case "height":
			cfg.Window.Height = *height
		case "seed":
			cfg.Seed = *seed
		}
	})

	logger := compass.NewDefaultLogger("compass", cfg.Debug)

	win, err := compass.OpenWindow(cfg.Window.Width, cfg.Window.Height, cfg.Window.Title)
	if err != nil {
		logger.Errorf("open window: %v", err)
		os.Exit(1)
	}
	defer win.Close()

	loop := compass.NewFrameLoop()
	widget, err := compass.Mount(win, compass.Options{
		Config:  cfg,
		Factory: win.Factory(),
		Loop:    loop,
		Logger:  logger,
	})
	if err != nil {
		os.Exit(1)
	}
	defer widget.Dispose()

	for !win.ShouldClose() {
		win.PollEvents()
		loop.Pump(win.Now())
		if !loop.Pending() {
			win.WaitEvents(50 * time.Millisecond)
		}
	}
}
