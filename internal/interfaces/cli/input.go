package cli

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"strconv"

	"github.com/turtacn/BrandPulse-Analytics/pkg/errors"
	"github.com/turtacn/BrandPulse-Analytics/pkg/types/review"
)

// readReviews loads review records from path.  Both a JSON array and
// newline-delimited JSON objects are accepted; scraped dumps come in either
// form.
func readReviews(path string) ([]review.Review, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidInput, "read input file")
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.NewInvalidInputError("input file is empty")
	}

	if trimmed[0] == '[' {
		var reviews []review.Review
		if err := json.Unmarshal(trimmed, &reviews); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDecodeFailed, "parse review array")
		}
		return reviews, nil
	}

	var reviews []review.Review
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		var r review.Review
		if err := json.Unmarshal(text, &r); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDecodeFailed,
				"parse review record on line "+strconv.Itoa(line))
		}
		reviews = append(reviews, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDecodeFailed, "scan input file")
	}
	return reviews, nil
}

// writeBytes writes raw bytes to path.
func writeBytes(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "write file")
	}
	return nil
}

// writeJSONFile writes data as indented JSON to path.
func writeJSONFile(path string, data interface{}) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "marshal output")
	}
	if err := os.WriteFile(path, append(out, '\n'), 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "write output file")
	}
	return nil
}
