package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"lyricvideo/internal/llm"
)

// MockGenerator is a mock type for the llm.Generator type
type MockGenerator struct {
	mock.Mock
}

// Generate provides a mock function with given fields: ctx, prompt, maxTokens
func (_m *MockGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	ret := _m.Called(ctx, prompt, maxTokens)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, string, int) string); ok {
		r0 = rf(ctx, prompt, maxTokens)
	} else {
		r0 = ret.String(0)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, int) error); ok {
		r1 = rf(ctx, prompt, maxTokens)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockGenerator creates a new instance of MockGenerator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGenerator {
	m := &MockGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ llm.Generator = (*MockGenerator)(nil)
