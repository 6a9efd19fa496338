package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/turtacn/BrandPulse-Analytics/pkg/errors"
)

func newReportCommand(_ *rootOptions) *cobra.Command {
	var input, brand string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render brand health from a saved run report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(input)
			if err != nil {
				return errors.Wrap(err, errors.ErrCodeInvalidInput, "read run report")
			}
			var rep runReport
			if err := json.Unmarshal(data, &rep); err != nil {
				return errors.Wrap(err, errors.ErrCodeDecodeFailed, "parse run report")
			}

			if asJSON {
				return printJSON(cmd, rep)
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(rep.HealthMetrics))
			for _, m := range rep.HealthMetrics {
				if brand != "" && m.BrandID != brand {
					continue
				}
				rows = append(rows, []string{
					m.BrandID,
					m.Bucket.Format("2006-01-02"),
					string(m.Granularity),
					strconv.Itoa(m.ReviewCount),
					fmt.Sprintf("%+.3f", m.MeanSentiment),
					fmt.Sprintf("%.1f%%", m.SatisfactionRate*100),
					termList(m.TopTerms),
				})
			}
			if len(rows) == 0 {
				fmt.Fprintln(out, "no matching buckets")
				return nil
			}
			fmt.Fprint(out, formatTable(
				[]string{"BRAND", "BUCKET", "GRAN", "REVIEWS", "SENTIMENT", "SATISFACTION", "TOP TERMS"},
				rows))

			if brand == "" {
				if len(rep.TopSatisfied) > 0 {
					fmt.Fprintf(out, "\nsatisfaction drivers:    %s\n", termList(rep.TopSatisfied))
				}
				if len(rep.TopDissatisfied) > 0 {
					fmt.Fprintf(out, "dissatisfaction drivers: %s\n", termList(rep.TopDissatisfied))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "run report file written by analyze or score")
	cmd.Flags().StringVarP(&brand, "brand", "b", "", "restrict to one brand")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the report as JSON")
	cmd.MarkFlagRequired("input")
	return cmd
}
