package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/loykin/curlproxy/internal/proxy"
	"github.com/loykin/curlproxy/internal/server"
	"github.com/loykin/curlproxy/internal/store"
	"github.com/spf13/cobra"
)

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP proxy server",
	RunE: func(cmd *cobra.Command, args []string) error {
		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx)
	},
}

func runServe(ctx context.Context) error {
	doc, logger, err := loadConfig()
	if err != nil {
		return err
	}
	opts, err := doc.ProxyOptions(logger)
	if err != nil {
		return err
	}
	st, err := doc.OpenStore(ctx, logger)
	if err != nil {
		return err
	}
	var runs server.RunStore
	if st != nil {
		defer func() { _ = st.Close() }()
		opts.Recorder = store.NewRecorder(st, logger.Masker())
		runs = st
	}
	srv := server.New(doc.ServerConfig(), proxy.New(opts), runs, logger)
	return srv.Run(ctx)
}
