package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	flags := registerFlags(flag.CommandLine)
	flag.Parse()

	cfg := loadConfig(*flags.configPath)
	flags.applyTo(&cfg)
	if cfg.Script == "" && flag.NArg() > 0 {
		cfg.Script = flag.Arg(0)
	}
	if cfg.Script == "" {
		log.Fatal("No game script given (use -script or pass a path)")
	}

	// Set up logging to stdout and, with an output dir, to a file next to the other logs
	if cfg.LogOutputDir != "" {
		if err := os.MkdirAll(cfg.LogOutputDir, 0755); err != nil {
			log.Fatal("Failed to create log dir:", err)
		}
		logFile, err := os.OpenFile(filepath.Join(cfg.LogOutputDir, "werewolf.log"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			log.Fatal("Failed to open log file:", err)
		}
		defer logFile.Close()
		log.SetOutput(io.MultiWriter(os.Stderr, logFile))
	}

	if err := InitAppLogger(cfg.toLogConfig()); err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer CloseAppLogger()

	if appLogger.IsEnabled() {
		log.Println("Extended logging enabled")
	}

	script, err := loadScript(cfg.Script)
	if err != nil {
		log.Fatal("Failed to load script:", err)
	}

	db, err = sqlx.Connect("sqlite3", cfg.DB)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := initDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}
	LogDBState("after initDB")

	initStoryteller(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	transcript, err := runScript(ctx, cfg, script, os.Stdout)
	if err != nil {
		logError("runScript", err)
		os.Exit(1)
	}

	if cfg.Transcript != "" {
		if err := writeTranscript(cfg.Transcript, transcript); err != nil {
			logError("writeTranscript", err)
			os.Exit(1)
		}
		log.Printf("Transcript written to %s", cfg.Transcript)
	}
}
