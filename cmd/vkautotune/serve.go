package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vkautotune/internal/api"
	"github.com/samcharles93/vkautotune/internal/logger"
	"github.com/samcharles93/vkautotune/internal/results"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:      "serve",
		Usage:     "Serve result logs over a read-only HTTP API",
		ArgsUsage: "<results>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, configFromContext(ctx), &addr)

			if cmd.Args().Len() == 0 {
				return cli.Exit("error: at least one result log is required", 1)
			}
			store := api.NewRunStore()
			for _, path := range cmd.Args().Slice() {
				records, err := results.Read(path)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: load %s: %v", path, err), 1)
				}
				run := store.Add(path, records, time.Now())
				log.Info("loaded result log", "path", path, "run_id", run.ID, "records", len(records))
			}

			server := api.NewServer(store)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
