package pipeline

import (
	"encoding/json"
	"time"

	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/classifier"
	"github.com/turtacn/BrandPulse-Analytics/internal/analytics/features"
	"github.com/turtacn/BrandPulse-Analytics/pkg/errors"
)

// ArtifactVersion is bumped whenever the artifact layout changes
// incompatibly.
const ArtifactVersion = 1

// Artifact bundles everything a later scoring run needs to reproduce the
// training-time behavior: the trained ensemble plus the fitted feature
// space.  A model without its vocabulary and IDF table cannot score, so the
// two are stored and versioned together.
type Artifact struct {
	Version   int               `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	Model     *classifier.Model `json:"model"`
	Features  features.State    `json:"features"`
}

// NewArtifact stamps a fresh artifact from a trained model and extractor
// state.
func NewArtifact(model *classifier.Model, state features.State) *Artifact {
	return &Artifact{
		Version:   ArtifactVersion,
		CreatedAt: time.Now().UTC(),
		Model:     model,
		Features:  state,
	}
}

// Marshal serializes the artifact for storage.
func (a *Artifact) Marshal() ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "marshal artifact")
	}
	return data, nil
}

// LoadArtifact deserializes and sanity-checks an artifact produced by
// Marshal.
func LoadArtifact(data []byte) (*Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "unmarshal artifact")
	}
	if a.Version != ArtifactVersion {
		return nil, errors.Newf(errors.ErrCodeSerialization,
			"unsupported artifact version %d", a.Version)
	}
	if a.Model == nil || len(a.Model.Trees) == 0 {
		return nil, errors.New(errors.ErrCodeSerialization, "artifact has no trained model")
	}
	if _, err := features.Restore(a.Features); err != nil {
		return nil, err
	}
	return &a, nil
}
