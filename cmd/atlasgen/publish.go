package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgallion1/atlasgen/internal/pipeline"
)

func publishCmd(a *app) *cobra.Command {
	var (
		dir          string
		buildID      string
		showManifest bool
	)
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload previously built output files to blob storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.publisher()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")

			if showManifest {
				m, err := p.Manifest(cmd.Context())
				if err != nil {
					return err
				}
				if m == nil {
					fmt.Fprintln(w, "no manifest published")
					return nil
				}
				return enc.Encode(m)
			}

			if dir == "" {
				dir = a.cfg.OutputPath
			}
			if buildID == "" {
				buildID = pipeline.NewBuildID()
			}
			arts, err := pipeline.ReadArtifacts(dir, pipeline.AllFiles()...)
			if err != nil {
				return err
			}
			m, err := p.Publish(cmd.Context(), buildID, arts)
			if err != nil {
				return err
			}
			return enc.Encode(m)
		},
	}
	cmd.Flags().StringVarP(&dir, "dir", "d", "", "Directory holding the output files (default OUTPUT_PATH)")
	cmd.Flags().StringVar(&buildID, "build-id", "", "Build id to publish under (default a new id)")
	cmd.Flags().BoolVar(&showManifest, "manifest", false, "Print the current manifest instead of publishing")
	return cmd
}
