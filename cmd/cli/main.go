package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dmitrijs2005/satkeeper/internal/buildinfo"
	"github.com/dmitrijs2005/satkeeper/internal/client/cli"
	"github.com/dmitrijs2005/satkeeper/internal/client/config"
	"github.com/dmitrijs2005/satkeeper/internal/filex"
	"github.com/dmitrijs2005/satkeeper/internal/logging"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	dir, err := filex.EnsurePrivateDir(cfg.DataDir)
	if err != nil {
		log.Fatalf("data dir: %v", err)
	}

	// the terminal belongs to the REPL, so structured logs go to a file
	logFile, err := os.OpenFile(filepath.Join(dir, "satkeeper.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, filex.PrivateFilePerm)
	if err != nil {
		log.Fatalf("log file: %v", err)
	}
	defer logFile.Close()
	logger := logging.NewJSONLogger(logFile, slog.LevelInfo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer app.Close()

	app.Run(ctx)
}
