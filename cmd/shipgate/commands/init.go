package commands

import (
	"fmt"

	"github.com/irahardianto/shipgate/internal/platform/logger"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize shipgate storage with the default gate configuration",
	Long: `Create the document store and seed it with the default quality-gate
configuration: critical functionality, performance standards, and quality
metrics gates. Running init against an existing store is a no-op.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)
		log.Info("init started")

		orch, globalCfg, closeStore, err := newOrchestrator(ctx)
		if err != nil {
			return err
		}
		defer closeStore() //nolint:errcheck

		conf := orch.Configuration()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✅ Storage initialized (%s backend at %s)\n", globalCfg.Storage.Backend, globalCfg.Storage.Dir)
		fmt.Fprintf(out, "📋 Configuration version %s with %d gates:\n", conf.Version, len(conf.Gates))
		for _, g := range conf.Gates {
			fmt.Fprintf(out, "  - %s (%s, %s)\n", g.Name, g.ID, g.Level)
		}

		log.Info("init completed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
