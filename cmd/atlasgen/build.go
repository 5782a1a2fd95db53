package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/atlasgen/internal/pipeline"
)

func buildCmd(a *app) *cobra.Command {
	var (
		output     string
		postImport bool
		publishOut bool
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the tree once and write the output files",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != "" {
				a.cfg.OutputPath = output
			}
			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			sinks, closeSinks, err := a.sinks(postImport, publishOut)
			if err != nil {
				return err
			}
			defer closeSinks()

			orch := pipeline.NewOrchestrator(a.cfg, nil, a.log, sinks...)
			run, out, err := orch.RunNow(cmd.Context(), "cli")
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out.Counts.Text())

			snap := run.Snapshot()
			if snap.Status == pipeline.StatusPartial {
				return fmt.Errorf("build %s written but delivery failed: %v", snap.ID, snap.Errors)
			}
			a.log.Info("build complete", "build_id", snap.ID, "output", a.cfg.OutputPath)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (overrides OUTPUT_PATH)")
	cmd.Flags().BoolVar(&postImport, "import", false, "Post the node map to the import API")
	cmd.Flags().BoolVar(&publishOut, "publish", false, "Publish the outputs to blob storage")
	return cmd
}
