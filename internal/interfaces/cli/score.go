package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/turtacn/BrandPulse-Analytics/internal/pipeline"
	"github.com/turtacn/BrandPulse-Analytics/pkg/errors"
)

func newScoreCommand(root *rootOptions) *cobra.Command {
	var input, modelPath, output, granularity string

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a review batch with a previously trained model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, p, err := setupWithGranularity(root, granularity)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(modelPath)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInvalidInput, "read model artifact")
			}
			art, err := pipeline.LoadArtifact(data)
			if err != nil {
				return err
			}

			reviews, err := readReviews(input)
			if err != nil {
				return err
			}

			res, err := p.ScoreWith(cmd.Context(), art, reviews)
			if err != nil {
				return err
			}

			if output != "" {
				if err := writeJSONFile(output, reportFromResult(res)); err != nil {
					return err
				}
			}
			printRunSummary(cmd, res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "review records file (JSON array or NDJSON)")
	cmd.Flags().StringVarP(&modelPath, "model", "m", "", "trained model artifact path")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the full run report as JSON")
	cmd.Flags().StringVarP(&granularity, "granularity", "g", "", "time bucket granularity (day, week, month)")
	cmd.MarkFlagRequired("input")
	cmd.MarkFlagRequired("model")
	return cmd
}
