package engine

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/draftdesk/docfill/internal/capability"
	"github.com/draftdesk/docfill/internal/model"
)

// --- Capability Mock ---

type mockCapability struct {
	mock.Mock
}

func (m *mockCapability) Summarize(ctx context.Context, text string) (string, error) {
	args := m.Called(ctx, text)
	return args.String(0), args.Error(1)
}

func (m *mockCapability) ClassifyType(ctx context.Context, req capability.ClassifyRequest) (model.FieldType, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(model.FieldType), args.Error(1)
}

func (m *mockCapability) ValidateAndExtract(ctx context.Context, req capability.ValidationRequest) (capability.Verdict, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(capability.Verdict), args.Error(1)
}

func (m *mockCapability) GenerateQuestion(ctx context.Context, req capability.QuestionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockCapability) SuggestValue(ctx context.Context, req capability.SuggestionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

// --- Ensure interface compliance ---
var _ capability.Client = (*mockCapability)(nil)
