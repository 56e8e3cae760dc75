package main

import (
	"embed"
	"flag"
	"log"
	"os"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/user/variflex_go/internal/config"
	"github.com/user/variflex_go/internal/logging"
)

//go:embed all:frontend/public
var assets embed.FS

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatal("Error loading config: ", err.Error())
	}
	logger := logging.Setup(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	app := NewApp(cfg, logger)

	err = wails.Run(&options.App{
		Title:  "VariFlex Kinetics Analyzer",
		Width:  720,
		Height: 600,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		BackgroundColour: &options.RGBA{R: 46, G: 46, B: 46, A: 255}, // #2e2e2e
		OnStartup:        app.Startup,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.Fatal("Error running Wails app: ", err.Error())
	}
}
