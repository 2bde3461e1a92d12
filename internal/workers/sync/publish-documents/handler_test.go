package publishdocuments

import (
	"context"
	"testing"

	apperrors "tour-sync/internal/common/errors"
	"tour-sync/internal/common/logger"
	"tour-sync/internal/tours/docsync"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Publish(ctx context.Context) (*docsync.PublishResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*docsync.PublishResult), args.Error(1)
}

func TestHandler_Execute(t *testing.T) {
	runner := &MockRunner{}
	runner.On("Publish", mock.Anything).Return(&docsync.PublishResult{Total: 3, Created: 1, Updated: 1, Failed: 1}, nil)

	h := NewHandler(DefaultConfig(), runner, logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Equal(t, 1, out.PublishResult.Failed)
	runner.AssertExpectations(t)
}

func TestHandler_ExecuteStoreReadFailure(t *testing.T) {
	runner := &MockRunner{}
	runner.On("Publish", mock.Anything).Return(nil, apperrors.NewStoreReadError("joined tours", assert.AnError))

	h := NewHandler(DefaultConfig(), runner, logger.NewNoOpLogger())
	_, err := h.Execute(context.Background(), &Input{})
	require.Error(t, err)

	stdErr := apperrors.Normalize(err)
	assert.True(t, stdErr.Retryable)
	assert.Equal(t, "DATABASE", apperrors.GetErrorCategory(stdErr.Code))
}

func TestDefaultConfig(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}
