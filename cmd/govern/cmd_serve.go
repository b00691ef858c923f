package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bridgeos/govern/internal/rpc"
)

var serveFlags struct {
	addr      string
	stateless bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the evaluator over gRPC",
	RunE:  runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.addr, "addr", "", "listen address (default GOVERN_LISTEN_ADDR)")
	f.BoolVar(&serveFlags.stateless, "stateless", false, "serve Evaluate only, without a session store")
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr := serveFlags.addr
	if addr == "" {
		addr = cfg.ListenAddr
	}

	svc := rpc.NewService(newEvaluator(), nil)
	if !serveFlags.stateless {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		svc = rpc.NewService(newEvaluator(), store)
	}

	srv, err := rpc.NewServer(addr, svc)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return srv.Serve(ctx)
}
