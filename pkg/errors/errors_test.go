package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_ErrorFormat(t *testing.T) {
	e := New(ErrCodeInvalidInput, "bad value")
	assert.Equal(t, "[COMMON_002] bad value", e.Error())

	e = e.WithStage("normalizer").WithRecord("rev-42")
	assert.Equal(t, "[COMMON_002] bad value (stage=normalizer, record=rev-42)", e.Error())
}

func TestAppError_ErrorFormatWithCause(t *testing.T) {
	cause := stderrors.New("disk full")
	e := Wrap(cause, ErrCodeStorage, "persisting predictions")
	assert.Equal(t, "[COMMON_005] persisting predictions: disk full", e.Error())
	assert.ErrorIs(t, e, cause)
}

func TestWrap_NilPassthrough(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrCodeStorage, "ignored"))
}

func TestWrap_PreservesCodeOnUnknown(t *testing.T) {
	inner := NewEmptyCorpusError("features.fit")
	outer := Wrap(inner, CodeUnknown, "pipeline run failed")
	assert.Equal(t, ErrCodeEmptyCorpus, outer.Code)
}

func TestIsCode_TraversesChain(t *testing.T) {
	inner := NewInsufficientDataError(4, 0)
	wrapped := fmt.Errorf("training: %w", inner)
	assert.True(t, IsCode(wrapped, ErrCodeInsufficientData))
	assert.False(t, IsCode(wrapped, ErrCodeEmptyCorpus))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, CodeUnknown, GetCode(stderrors.New("plain")))
	assert.Equal(t, ErrCodeMalformedRecord, GetCode(NewMalformedRecordError("r1", "missing raw_text")))
}

func TestDomainPredicates(t *testing.T) {
	require.True(t, IsConfiguration(NewConfigurationError("ngram_range", "minimum exceeds maximum")))
	require.True(t, IsEmptyCorpus(NewEmptyCorpusError("features.fit")))
	require.True(t, IsInsufficientData(NewInsufficientDataError(0, 3)))
	require.True(t, IsMalformedRecord(NewMalformedRecordError("r9", "missing id")))
	require.False(t, IsMalformedRecord(NewConfigurationError("top_k_terms", "must be >= 1")))
}

func TestMalformedRecordContext(t *testing.T) {
	e := NewMalformedRecordError("rev-7", "missing raw_text")
	assert.Equal(t, "rev-7", e.RecordID)
	assert.Equal(t, "ingest", e.Stage)
	assert.Contains(t, e.Error(), "record=rev-7")
}

func TestWithStage_NilSafe(t *testing.T) {
	var e *AppError
	assert.Nil(t, e.WithStage("anything"))
	assert.Nil(t, e.WithRecord("anything"))
}
