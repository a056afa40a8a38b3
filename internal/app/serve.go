// internal/app/serve.go
package app

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mavekit/internal/config"
	"mavekit/internal/server"
)

func newServeCmd(e *env) *cobra.Command {
	var maxBatch int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog models over the V2 inference protocol",
		Args:  usageArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			log.WithField("models", len(e.catalog.Names())).Info("serving catalog")
			return server.New(e.catalog, server.Options{MaxBatch: maxBatch}).Run(cmd.Context(), e.cfg.Server.Addr)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8080)")
	cmd.Flags().IntVar(&maxBatch, "max-batch", server.DefaultMaxBatch, "largest accepted batch")
	_ = e.v.BindPFlag(config.KeyServerAddr, cmd.Flags().Lookup("addr"))
	return cmd
}
