package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/BrandPulse-Analytics/internal/config"
	"github.com/turtacn/BrandPulse-Analytics/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/BrandPulse-Analytics/internal/pipeline"
	"github.com/turtacn/BrandPulse-Analytics/pkg/types/review"
)

// runReport is the JSON shape written by analyze/score and read by report.
type runReport struct {
	RunID           string                     `json:"run_id"`
	TrainingSize    int                        `json:"training_size,omitempty"`
	Predictions     []review.Prediction        `json:"predictions"`
	Sentiments      []review.SentimentScore    `json:"sentiments"`
	HealthMetrics   []review.BrandHealthMetric `json:"health_metrics"`
	Summaries       []review.BrandSummary      `json:"summaries"`
	TopSatisfied    []review.TermWeight        `json:"top_satisfied"`
	TopDissatisfied []review.TermWeight        `json:"top_dissatisfied"`
	Skipped         []pipeline.SkippedRecord   `json:"skipped,omitempty"`
}

func reportFromResult(res *pipeline.Result) runReport {
	return runReport{
		RunID:           res.RunID,
		TrainingSize:    res.TrainingSize,
		Predictions:     res.Predictions,
		Sentiments:      res.Sentiments,
		HealthMetrics:   res.HealthMetrics,
		Summaries:       res.Summaries,
		TopSatisfied:    res.TopSatisfied,
		TopDissatisfied: res.TopDissatisfied,
		Skipped:         res.Skipped,
	}
}

func newAnalyzeCommand(root *rootOptions) *cobra.Command {
	var input, output, modelOut, granularity string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Train on a review batch and report brand health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, _, p, err := setupWithGranularity(root, granularity)
			if err != nil {
				return err
			}

			reviews, err := readReviews(input)
			if err != nil {
				return err
			}

			res, err := p.Run(cmd.Context(), reviews)
			if err != nil {
				return err
			}

			if output != "" {
				if err := writeJSONFile(output, reportFromResult(res)); err != nil {
					return err
				}
			}
			if modelOut != "" {
				data, err := res.Artifact.Marshal()
				if err != nil {
					return err
				}
				if err := writeBytes(modelOut, data); err != nil {
					return err
				}
			}

			printRunSummary(cmd, res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "review records file (JSON array or NDJSON)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the full run report as JSON")
	cmd.Flags().StringVarP(&modelOut, "model", "m", "", "write the trained model artifact")
	cmd.Flags().StringVarP(&granularity, "granularity", "g", "", "time bucket granularity (day, week, month)")
	cmd.MarkFlagRequired("input")
	return cmd
}

// setupWithGranularity is setup with an optional granularity override from
// the command line.
func setupWithGranularity(root *rootOptions, granularity string) (*config.Config, logging.Logger, *pipeline.Pipeline, error) {
	c, l, p, err := setup(root)
	if err != nil {
		return nil, nil, nil, err
	}
	if granularity == "" {
		return c, l, p, nil
	}
	c.Analysis.TimeBucketGranularity = granularity
	p, err = pipeline.New(c.Analysis,
		pipeline.WithLogger(l),
		pipeline.WithConcurrency(c.Worker.Concurrency))
	if err != nil {
		return nil, nil, nil, err
	}
	return c, l, p, nil
}

func printRunSummary(cmd *cobra.Command, res *pipeline.Result) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s: %d scored, %d skipped, trained on %d\n\n",
		res.RunID, len(res.Predictions), len(res.Skipped), res.TrainingSize)

	rows := make([][]string, 0, len(res.Summaries))
	for _, s := range res.Summaries {
		rows = append(rows, []string{
			s.BrandID,
			strconv.Itoa(s.ReviewCount),
			fmt.Sprintf("%.2f", s.MeanRating),
			fmt.Sprintf("%.1f%%", s.SatisfactionRate*100),
			fmt.Sprintf("%+.3f", s.MeanSentiment),
		})
	}
	fmt.Fprint(out, formatTable(
		[]string{"BRAND", "REVIEWS", "MEAN RATING", "SATISFACTION", "SENTIMENT"}, rows))

	if len(res.TopSatisfied) > 0 {
		fmt.Fprintf(out, "\nsatisfaction drivers:    %s\n", termList(res.TopSatisfied))
	}
	if len(res.TopDissatisfied) > 0 {
		fmt.Fprintf(out, "dissatisfaction drivers: %s\n", termList(res.TopDissatisfied))
	}
}

func termList(terms []review.TermWeight) string {
	s := ""
	for i, t := range terms {
		if i > 0 {
			s += ", "
		}
		s += t.Term
	}
	return s
}
