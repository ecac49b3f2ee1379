// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/poiesic/studyguide"
	"github.com/poiesic/studyguide/config"
	"github.com/poiesic/studyguide/document"
	"github.com/poiesic/studyguide/progress"
	"github.com/poiesic/studyguide/server"
	"github.com/poiesic/studyguide/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if err := newApp(cfg).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp(cfg *config.Config) *cli.App {
	return &cli.App{
		Name:  "studyguide",
		Usage: "Generate learning guides from study materials",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   cfg.LogLevel,
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "generate",
				Usage:     "Generate a learning guide from .txt, .pdf and .docx files",
				ArgsUsage: "FILE...",
				Action:    func(c *cli.Context) error { return generateCommand(c, cfg) },
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "subject",
						Aliases:  []string{"s"},
						Usage:    "Name of the subject or module",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Directory to write the guide to",
						Value:   ".",
					},
				}, generatorFlags(cfg)...),
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP and websocket API",
				Action: func(c *cli.Context) error { return serveCommand(c, cfg) },
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address",
						Value: cfg.ListenAddr,
					},
					&cli.Int64Flag{
						Name:  "max-upload-mb",
						Usage: "Maximum upload size in megabytes",
						Value: cfg.MaxUploadSizeMB,
					},
				}, generatorFlags(cfg)...),
			},
			{
				Name:  "cache",
				Usage: "Manage the on-disk cache",
				Subcommands: []*cli.Command{
					{
						Name:   "clear",
						Usage:  "Remove every cached upload and guide",
						Action: cacheClearCommand,
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "cache-dir",
								Usage:    "Path to the BadgerDB cache directory",
								Value:    cfg.CacheDir,
								Required: cfg.CacheDir == "",
							},
						},
					},
				},
			},
		},
	}
}

// generatorFlags are shared by every command that runs generation.
// Defaults come from the loaded configuration.
func generatorFlags(cfg *config.Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "provider",
			Usage: "Generation provider (openai, gemini)",
			Value: cfg.Provider,
		},
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: cfg.Host,
		},
		&cli.StringFlag{
			Name:  "model",
			Usage: "Model name",
			Value: cfg.Model,
		},
		&cli.StringFlag{
			Name:  "api-key",
			Usage: "Provider API key",
			Value: cfg.APIKey,
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "Maximum concurrent generation calls (0 for unbounded)",
			Value: cfg.Concurrency,
		},
		&cli.IntFlag{
			Name:  "max-attempts",
			Usage: "Attempts per chunk (1 disables retries)",
			Value: cfg.MaxAttempts,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "Base delay for exponential backoff",
			Value: cfg.RetryDelay,
		},
		&cli.IntFlag{
			Name:  "chunk-size",
			Usage: "Target chunk size in characters",
			Value: cfg.ChunkSize,
		},
		&cli.IntFlag{
			Name:  "chunk-overlap",
			Usage: "Characters shared by adjacent chunks",
			Value: cfg.ChunkOverlap,
		},
		&cli.StringFlag{
			Name:  "cache-dir",
			Usage: "Persist caches in this directory (default: in memory)",
			Value: cfg.CacheDir,
		},
	}
}

// applyFlags returns a copy of cfg with the command's flag values applied.
func applyFlags(c *cli.Context, cfg *config.Config) (*config.Config, error) {
	out := *cfg
	out.Provider = c.String("provider")
	out.Host = c.String("host")
	out.Model = c.String("model")
	out.APIKey = c.String("api-key")
	out.Concurrency = c.Int("concurrency")
	out.MaxAttempts = c.Int("max-attempts")
	out.RetryDelay = c.Duration("retry-delay")
	out.ChunkSize = c.Int("chunk-size")
	out.ChunkOverlap = c.Int("chunk-overlap")
	out.CacheDir = c.String("cache-dir")
	if c.IsSet("addr") {
		out.ListenAddr = c.String("addr")
	}
	if c.IsSet("max-upload-mb") {
		out.MaxUploadSizeMB = c.Int64("max-upload-mb")
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func generateCommand(c *cli.Context, base *config.Config) error {
	if c.NArg() == 0 {
		return errors.New("at least one input file is required")
	}

	cfg, err := applyFlags(c, base)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	path, err := runGenerate(ctx, cfg, c.String("subject"), c.String("out"), c.Args().Slice(), os.Stderr)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Guide written to %s\n", path)
	return nil
}

// runGenerate builds a guide from paths and writes it into outDir.
// Progress is written to progressOut. It returns the written file's path.
func runGenerate(ctx context.Context, cfg *config.Config, subject, outDir string, paths []string, progressOut io.Writer, opts ...studyguide.ServiceOption) (string, error) {
	uploads, err := readUploads(paths)
	if err != nil {
		return "", err
	}

	svc, err := studyguide.NewService(ctx, append([]studyguide.ServiceOption{studyguide.WithConfig(cfg)}, opts...)...)
	if err != nil {
		return "", fmt.Errorf("failed to create service: %w", err)
	}
	defer func() {
		if err := svc.Close(); err != nil {
			slog.Error("error closing service", "err", err)
		}
	}()

	id, chunks, err := svc.Prepare(ctx, uploads...)
	if err != nil {
		return "", err
	}
	slog.Info("prepared study materials", "files", len(uploads), "chunks", len(chunks))

	tracker := progress.NewTracker(progressOut, 1)
	tracker.Start(len(chunks))
	doc, err := svc.Generate(ctx, id, subject, tracker)
	tracker.Finish()
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("generation interrupted: %w", err)
	}

	if doc.Partial() {
		slog.Warn(fmt.Sprintf("%d of %d chunks failed; the guide is incomplete", doc.Failed, doc.Total))
	}
	slog.Info("generation complete", "summary", tracker.Summary())

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(outDir, doc.FileName())
	if err := os.WriteFile(path, []byte(doc.Body), 0644); err != nil {
		return "", fmt.Errorf("failed to write guide: %w", err)
	}
	return path, nil
}

func readUploads(paths []string) ([]document.Upload, error) {
	uploads := make([]document.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, document.Upload{Name: filepath.Base(p), Data: data})
	}
	return uploads, nil
}

func serveCommand(c *cli.Context, base *config.Config) error {
	cfg, err := applyFlags(c, base)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc, err := studyguide.NewService(ctx, studyguide.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	defer svc.Close()

	srv := server.New(svc, server.WithMaxUploadBytes(cfg.MaxUploadBytes()))
	return srv.Run(ctx, cfg.ListenAddr)
}

func cacheClearCommand(c *cli.Context) error {
	dir := c.String("cache-dir")
	if dir == "" {
		return errors.New("cache directory is required")
	}

	backend, err := badger.OpenBackend(dir, false)
	if err != nil {
		return fmt.Errorf("failed to open cache: %w", err)
	}
	defer backend.Close()

	ctx := context.Background()
	if err := errors.Join(
		badger.NewChunkCache(backend).Clear(ctx),
		badger.NewGuideCache(backend).Clear(ctx),
	); err != nil {
		return err
	}

	slog.Info("cache cleared", "dir", dir)
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
