package reversesync

import (
	"context"
	"testing"

	apperrors "tour-sync/internal/common/errors"
	"tour-sync/internal/common/logger"
	"tour-sync/internal/tours/reverse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) ReverseSync(ctx context.Context) (*reverse.Result, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reverse.Result), args.Error(1)
}

func TestHandler_Execute(t *testing.T) {
	runner := &MockRunner{}
	runner.On("ReverseSync", mock.Anything).Return(&reverse.Result{Documents: 5, Updated: 3, Failed: 1, Skipped: 1}, nil)

	h := NewHandler(DefaultConfig(), runner, logger.NewTestLogger(t))
	out, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Updated)
	assert.Equal(t, 1, out.Failed)
	assert.Equal(t, 5, out.ReverseResult.Documents)
}

func TestHandler_ExecuteListingFailure(t *testing.T) {
	runner := &MockRunner{}
	runner.On("ReverseSync", mock.Anything).Return(nil, apperrors.NewDocumentStoreError("list", "", assert.AnError))

	h := NewHandler(DefaultConfig(), runner, logger.NewNoOpLogger())
	_, err := h.Execute(context.Background(), &Input{})
	assert.Equal(t, apperrors.ErrCodeDocumentStoreFailed, apperrors.CodeOf(err))
}
