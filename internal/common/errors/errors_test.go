package errors

import (
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_Constructors(t *testing.T) {
	err := NewStoreWriteError("tours", "1234", io.ErrUnexpectedEOF)

	assert.Equal(t, ErrCodeStoreWriteFailed, err.Code)
	assert.True(t, err.Retryable)
	assert.Equal(t, "tours", err.Metadata["table"])
	assert.Equal(t, "1234", err.Metadata["key"])
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "STORE_WRITE_FAILED")
	assert.Contains(t, err.Error(), "unexpected EOF")

	src := NewSourceReadError("data/input/arctic_trip.csv", io.EOF)
	assert.False(t, src.Retryable)
	assert.Equal(t, "data/input/arctic_trip.csv", src.Metadata["path"])
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("publish: %w", NewDocumentStoreError("create", "Fruita Singletrack", io.EOF))

	assert.Equal(t, ErrCodeDocumentStoreFailed, CodeOf(wrapped))
	assert.Equal(t, ErrCodeInternal, CodeOf(io.EOF))
}

func TestNormalize(t *testing.T) {
	std := NewInvalidJobInputError(io.EOF)
	assert.Same(t, std, Normalize(fmt.Errorf("decode: %w", std)))

	plain := Normalize(io.EOF)
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "EOF", plain.Details)
}

func TestConvertToBPMNError(t *testing.T) {
	std := NewUpstreamUpdateError("MOAB3", io.EOF)

	bpmn := ConvertToBPMNError(std)
	require.NotNil(t, bpmn)
	assert.Equal(t, "UPSTREAM_UPDATE_FAILED", bpmn.Code)
	assert.True(t, bpmn.Retryable)

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "UPSTREAM_UPDATE_FAILED", vars["errorCode"])
	assert.Equal(t, "EXTERNAL", vars["errorCategory"])
	assert.Equal(t, "MOAB3", vars["shortCode"])
	assert.Equal(t, "EOF", vars["errorDetails"])
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeSourceReadFailed:     "SOURCE",
		ErrCodeStoreReadFailed:      "DATABASE",
		ErrCodeDocumentStoreFailed:  "EXTERNAL",
		ErrCodeUpstreamUpdateFailed: "EXTERNAL",
		ErrCodeReportSendFailed:     "AUXILIARY",
		ErrCodeSearchIndexFailed:    "AUXILIARY",
		ErrCodeInvalidFrontMatter:   "VALIDATION",
		ErrCodeInternal:             "OTHER",
	}
	for code, want := range tests {
		assert.Equal(t, want, GetErrorCategory(code), string(code))
	}
}
