package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/turtacn/BrandPulse-Analytics/internal/infrastructure/artifacts/minio"
	"github.com/turtacn/BrandPulse-Analytics/pkg/errors"
)

func newTrainCommand(root *rootOptions) *cobra.Command {
	var input, modelOut string
	var remote bool

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a satisfaction model and write the artifact",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, p, err := setup(root)
			if err != nil {
				return err
			}
			if remote && !cfg.MinIO.Enabled {
				return errors.NewConfigurationError("minio.enabled",
					"--remote requires the minio section to be enabled")
			}

			reviews, err := readReviews(input)
			if err != nil {
				return err
			}

			res, err := p.Run(cmd.Context(), reviews)
			if err != nil {
				return err
			}

			data, err := res.Artifact.Marshal()
			if err != nil {
				return err
			}
			if err := writeBytes(modelOut, data); err != nil {
				return err
			}

			if remote {
				store, err := minio.NewArtifactStore(cfg.MinIO, log)
				if err != nil {
					return err
				}
				if err := store.Put(cmd.Context(), res.RunID, res.Artifact); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "artifact uploaded as run %s\n", res.RunID)
			}

			meta := res.Model.Meta
			fmt.Fprintf(cmd.OutOrStdout(),
				"model written to %s\nrun %s: trained on %d reviews (%d satisfied, %d dissatisfied), vocabulary %d\n",
				modelOut, res.RunID, meta.CorpusSize, meta.PositiveCount, meta.NegativeCount, meta.VocabSize)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "review records file (JSON array or NDJSON)")
	cmd.Flags().StringVarP(&modelOut, "model", "m", "", "artifact output path")
	cmd.Flags().BoolVar(&remote, "remote", false, "also upload the artifact to the configured object store")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("model")
	return cmd
}
