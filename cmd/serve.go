package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rowanvale/tracklink/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve starts the linkage HTTP service.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireDB(); err != nil {
		return err
	}

	host := r.config.Server.Host
	port := r.config.Server.Port
	if cmd.IsSet("port") {
		port = int(cmd.Int("port"))
	}

	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger))
	router.Handler(server.NewLinkageHandler(r.arbitrator, r.sweeper, r.logger))

	addr := fmt.Sprintf("%s:%d", host, port)
	r.logger.Info("starting linkage service", "addr", addr)
	r.writePlain("Listening on http://%s\n", addr)

	return http.ListenAndServe(addr, router)
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the linkage HTTP service (health, lookups, sweeps)",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on (overrides config)",
			},
		},
		Action: r.Serve,
	}
}
