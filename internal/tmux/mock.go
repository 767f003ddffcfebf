package tmux

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a mock implementation of Client for testing.
// It uses testify/mock to provide flexible behavior configuration and
// method call tracking for assertions.
//
// Example usage:
//
//	mockClient := new(MockClient)
//	mockClient.On("ListWindows", mock.Anything, "$1").Return([]Window{
//	    {ID: "@1", Index: 0, Active: true},
//	    {ID: "@2", Index: 1},
//	}, nil)
//
//	windows, err := mockClient.ListWindows(ctx, "$1")
//	assert.NoError(t, err)
//	mockClient.AssertCalled(t, "ListWindows", mock.Anything, "$1")
type MockClient struct {
	mock.Mock
}

var _ Client = (*MockClient)(nil)

// Run returns mocked command output.
func (m *MockClient) Run(ctx context.Context, args ...string) (string, string, error) {
	callArgs := m.Called(ctx, args)
	return callArgs.String(0), callArgs.String(1), callArgs.Error(2)
}

// HasSession returns a mocked server status.
func (m *MockClient) HasSession(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

// CurrentSession returns a mocked session id.
func (m *MockClient) CurrentSession(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// ListSessions returns a mocked session map.
func (m *MockClient) ListSessions(ctx context.Context) (map[string]string, error) {
	args := m.Called(ctx)
	sessions, _ := args.Get(0).(map[string]string)
	return sessions, args.Error(1)
}

// ListWindows returns mocked windows.
//
//	mock.On("ListWindows", mock.Anything, "$1").Return([]Window{...}, nil)
func (m *MockClient) ListWindows(ctx context.Context, sessionID string) ([]Window, error) {
	args := m.Called(ctx, sessionID)
	windows, _ := args.Get(0).([]Window)
	return windows, args.Error(1)
}

// SwitchClient returns a mocked error.
func (m *MockClient) SwitchClient(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

// SelectWindow returns a mocked error.
func (m *MockClient) SelectWindow(ctx context.Context, windowID string) error {
	return m.Called(ctx, windowID).Error(0)
}

// RespawnWindow returns a mocked error.
func (m *MockClient) RespawnWindow(ctx context.Context, windowID string) error {
	return m.Called(ctx, windowID).Error(0)
}

// SetHook returns a mocked error.
func (m *MockClient) SetHook(ctx context.Context, name, command string) error {
	return m.Called(ctx, name, command).Error(0)
}
