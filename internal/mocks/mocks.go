// Package mocks provides mock implementations of core interfaces for testing.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"clipcast/internal/types"
)

// MockProber is a mock implementation of types.Prober
type MockProber struct {
	mock.Mock
}

func (m *MockProber) Probe(ctx context.Context, sourcePath string) (float64, error) {
	args := m.Called(ctx, sourcePath)
	return args.Get(0).(float64), args.Error(1)
}

// MockTranscoder is a mock implementation of types.Transcoder
type MockTranscoder struct {
	mock.Mock
}

func (m *MockTranscoder) Transcode(ctx context.Context, spec types.CompositionSpec, outputPath string) error {
	args := m.Called(ctx, spec, outputPath)
	return args.Error(0)
}

// MockSink is a mock implementation of types.Sink
type MockSink struct {
	mock.Mock
}

func (m *MockSink) Deliver(ctx context.Context, chatID int64, filePath string) error {
	args := m.Called(ctx, chatID, filePath)
	return args.Error(0)
}

// MockMessenger is a mock implementation of types.Messenger
type MockMessenger struct {
	mock.Mock
}

func (m *MockMessenger) SendText(ctx context.Context, chatID int64, text string) error {
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}
