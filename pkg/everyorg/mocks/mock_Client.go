// Package mocks provides test doubles for the everyorg client.
package mocks

import (
	"context"

	everyorg "github.com/sells-group/relief-match/pkg/everyorg"
	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Search provides a mock function with given fields: ctx, term, opts
func (_m *MockClient) Search(ctx context.Context, term string, opts everyorg.SearchOptions) ([]everyorg.Nonprofit, error) {
	ret := _m.Called(ctx, term, opts)

	if len(ret) == 0 {
		panic("no return value specified for Search")
	}

	var r0 []everyorg.Nonprofit
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, everyorg.SearchOptions) ([]everyorg.Nonprofit, error)); ok {
		return rf(ctx, term, opts)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, everyorg.SearchOptions) []everyorg.Nonprofit); ok {
		r0 = rf(ctx, term, opts)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]everyorg.Nonprofit)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, everyorg.SearchOptions) error); ok {
		r1 = rf(ctx, term, opts)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Browse provides a mock function with given fields: ctx, cause, opts
func (_m *MockClient) Browse(ctx context.Context, cause string, opts everyorg.BrowseOptions) ([]everyorg.Nonprofit, error) {
	ret := _m.Called(ctx, cause, opts)

	if len(ret) == 0 {
		panic("no return value specified for Browse")
	}

	var r0 []everyorg.Nonprofit
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, everyorg.BrowseOptions) ([]everyorg.Nonprofit, error)); ok {
		return rf(ctx, cause, opts)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, everyorg.BrowseOptions) []everyorg.Nonprofit); ok {
		r0 = rf(ctx, cause, opts)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]everyorg.Nonprofit)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, everyorg.BrowseOptions) error); ok {
		r1 = rf(ctx, cause, opts)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// GetDetails provides a mock function with given fields: ctx, slug
func (_m *MockClient) GetDetails(ctx context.Context, slug string) (*everyorg.Details, error) {
	ret := _m.Called(ctx, slug)

	if len(ret) == 0 {
		panic("no return value specified for GetDetails")
	}

	var r0 *everyorg.Details
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*everyorg.Details, error)); ok {
		return rf(ctx, slug)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *everyorg.Details); ok {
		r0 = rf(ctx, slug)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*everyorg.Details)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, slug)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient. It also registers a
// cleanup function to assert the mocks expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
