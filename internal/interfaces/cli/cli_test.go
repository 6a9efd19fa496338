package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/BrandPulse-Analytics/pkg/types/review"
)

func sampleReviews() []review.Review {
	mk := func(id, brand, text string, rating, day int) review.Review {
		return review.Review{
			ID: id, BrandID: brand, RawText: text, Rating: rating,
			Timestamp: time.Date(2024, 3, day, 10, 0, 0, 0, time.UTC),
		}
	}
	return []review.Review{
		mk("s1", "acmephen", "Great relief, this medication really worked for me.", 9, 1),
		mk("s2", "acmephen", "Very effective and safe, my condition improved.", 8, 4),
		mk("s3", "zolvex", "Excellent results, helped me and I would recommend it.", 9, 8),
		mk("s4", "zolvex", "Amazing improvement, happy with this drug.", 9, 12),
		mk("s5", "acmephen", "Worked wonderfully, total relief from my migraines.", 8, 15),
		mk("s6", "zolvex", "Good tolerable medication, helped me sleep better.", 7, 19),
		mk("d1", "acmephen", "Severe nausea and dizziness, I stopped taking it.", 2, 2),
		mk("d2", "acmephen", "Terrible headache and fatigue, completely useless.", 1, 5),
		mk("d3", "zolvex", "Horrible rash and itching, the worst drug I tried.", 2, 9),
		mk("d4", "zolvex", "Awful insomnia and anxiety, it made everything worse.", 3, 13),
		mk("d5", "acmephen", "Unbearable pain returned, totally ineffective.", 1, 16),
		mk("d6", "zolvex", "Bad vomiting and swelling, I quit after one week.", 2, 20),
	}
}

func writeInputFile(t *testing.T, reviews []review.Review) string {
	t.Helper()
	data, err := json.Marshal(reviews)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "reviews.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestReadReviews_ArrayAndNDJSON(t *testing.T) {
	reviews := sampleReviews()
	path := writeInputFile(t, reviews)

	got, err := readReviews(path)
	require.NoError(t, err)
	assert.Len(t, got, len(reviews))
	assert.Equal(t, "s1", got[0].ID)

	// Same records, newline-delimited.
	var sb strings.Builder
	for _, r := range reviews {
		line, err := json.Marshal(r)
		require.NoError(t, err)
		sb.Write(line)
		sb.WriteByte('\n')
	}
	ndPath := filepath.Join(t.TempDir(), "reviews.ndjson")
	require.NoError(t, os.WriteFile(ndPath, []byte(sb.String()), 0o644))

	got, err = readReviews(ndPath)
	require.NoError(t, err)
	assert.Len(t, got, len(reviews))
}

func TestReadReviews_BadInput(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o644))
	_, err := readReviews(empty)
	require.Error(t, err)

	garbage := filepath.Join(dir, "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("{{{"), 0o644))
	_, err = readReviews(garbage)
	require.Error(t, err)

	_, err = readReviews(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}

func TestFormatTable_Alignment(t *testing.T) {
	out := formatTable(
		[]string{"BRAND", "REVIEWS"},
		[][]string{{"acmephen", "12"}, {"zx", "3"}},
	)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "BRAND"))
	assert.Contains(t, lines[1], "-----")
	// First column is padded to the widest cell, so REVIEWS starts at the
	// same offset on every line.
	offset := strings.Index(lines[0], "REVIEWS")
	require.Greater(t, offset, len("acmephen"))
	assert.Equal(t, "12", lines[2][offset:offset+2])
	assert.Equal(t, "3", strings.TrimRight(lines[3][offset:], " "))
}

func TestAnalyzeCommand_EndToEnd(t *testing.T) {
	input := writeInputFile(t, sampleReviews())
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.json")
	modelPath := filepath.Join(dir, "model.json")

	out, err := runCommand(t,
		"analyze", "--input", input, "--output", reportPath, "--model", modelPath)
	require.NoError(t, err, out)

	assert.Contains(t, out, "BRAND")
	assert.Contains(t, out, "acmephen")
	assert.Contains(t, out, "zolvex")

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	var rep runReport
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Len(t, rep.Predictions, 12)
	assert.Equal(t, 12, rep.TrainingSize)
	assert.NotEmpty(t, rep.HealthMetrics)

	_, err = os.Stat(modelPath)
	require.NoError(t, err)
}

func TestScoreCommand_UsesTrainedModel(t *testing.T) {
	input := writeInputFile(t, sampleReviews())
	dir := t.TempDir()
	modelPath := filepath.Join(dir, "model.json")
	reportPath := filepath.Join(dir, "scored.json")

	out, err := runCommand(t, "train", "--input", input, "--model", modelPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "model written")

	out, err = runCommand(t,
		"score", "--input", input, "--model", modelPath, "--output", reportPath)
	require.NoError(t, err, out)

	var rep runReport
	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Len(t, rep.Predictions, 12)
	assert.Zero(t, rep.TrainingSize)
}

func TestReportCommand_RendersSavedRun(t *testing.T) {
	input := writeInputFile(t, sampleReviews())
	dir := t.TempDir()
	reportPath := filepath.Join(dir, "report.json")

	_, err := runCommand(t, "analyze", "--input", input, "--output", reportPath)
	require.NoError(t, err)

	out, err := runCommand(t, "report", "--input", reportPath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "BUCKET")
	assert.Contains(t, out, "acmephen")

	out, err = runCommand(t, "report", "--input", reportPath, "--brand", "zolvex")
	require.NoError(t, err, out)
	assert.Contains(t, out, "zolvex")
	assert.NotContains(t, out, "acmephen")
}

func TestAnalyzeCommand_RequiresInput(t *testing.T) {
	_, err := runCommand(t, "analyze")
	require.Error(t, err)
}
