package mocks

import (
	"context"
	"os"
	"path/filepath"

	"github.com/stretchr/testify/mock"

	"lyricvideo/internal/volc"
)

// MockImageService is a mock type for the image generation service
type MockImageService struct {
	mock.Mock
}

// GenerateImage provides a mock function with given fields: ctx, req
func (_m *MockImageService) GenerateImage(ctx context.Context, req volc.ImageRequest) (string, error) {
	ret := _m.Called(ctx, req)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, volc.ImageRequest) string); ok {
		r0 = rf(ctx, req)
	} else {
		r0 = ret.String(0)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, volc.ImageRequest) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// DownloadImage provides a mock function with given fields: ctx, url, dest
func (_m *MockImageService) DownloadImage(ctx context.Context, url string, dest string) error {
	ret := _m.Called(ctx, url, dest)

	if rf, ok := ret.Get(0).(func(context.Context, string, string) error); ok {
		return rf(ctx, url, dest)
	}
	return ret.Error(0)
}

// WriteFile is a DownloadImage stand-in that writes the url as file content.
func WriteFile(_ context.Context, url string, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	return os.WriteFile(dest, []byte(url), 0o644)
}

// NewMockImageService creates a new instance of MockImageService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockImageService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockImageService {
	m := &MockImageService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}
