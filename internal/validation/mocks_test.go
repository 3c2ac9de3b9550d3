package validation_test

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockEmbedder is a testify mock for scoring.Embedder
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, texts ...string) ([][]float32, error) {
	args := m.Called(ctx, texts)
	if v := args.Get(0); v != nil {
		return v.([][]float32), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockJudge is a testify mock for scoring.Judge
type MockJudge struct {
	mock.Mock
}

func (m *MockJudge) Judge(ctx context.Context, question, expected, submitted string) (float64, error) {
	args := m.Called(ctx, question, expected, submitted)
	return args.Get(0).(float64), args.Error(1)
}
