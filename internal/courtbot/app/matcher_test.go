package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/opencourt/courtbot/internal/courtbot/domain"
)

func setupMatcherTest(t *testing.T) (*Matcher, *MockCaseRepository) {
	t.Helper()
	mockCases := new(MockCaseRepository)
	return NewMatcher(mockCases, testLogger()), mockCases
}

func TestMatcher_NormalizesInput(t *testing.T) {
	matcher, mockCases := setupMatcherTest(t)

	mockCases.On("FindByCitation", mock.Anything, "ABC123").Return([]domain.CaseRecord{}, nil)

	result, err := matcher.Match(context.Background(), "  abc123 ")

	assert.NoError(t, err)
	assert.Equal(t, "ABC123", result.Citation)
	mockCases.AssertCalled(t, "FindByCitation", mock.Anything, "ABC123")
}

func TestMatcher_SingleHitIsUnique(t *testing.T) {
	matcher, mockCases := setupMatcherTest(t)

	rec := testCaseRecord()
	mockCases.On("FindByCitation", mock.Anything, "Z-9").Return([]domain.CaseRecord{rec}, nil)

	result, err := matcher.Match(context.Background(), "Z-9")

	assert.NoError(t, err)
	assert.Equal(t, MatchUnique, result.Outcome)
	assert.NotNil(t, result.Case)
	assert.Equal(t, rec.ID, result.Case.ID)
}

func TestMatcher_ZeroHitsWithinBoundsIsQueueable(t *testing.T) {
	matcher, mockCases := setupMatcherTest(t)

	mockCases.On("FindByCitation", mock.Anything, mock.Anything).Return([]domain.CaseRecord{}, nil)

	for _, citation := range []string{"ABC123", strings.Repeat("X", 25)} {
		result, err := matcher.Match(context.Background(), citation)
		assert.NoError(t, err)
		assert.Equal(t, MatchQueueable, result.Outcome, "citation %q", citation)
		assert.Nil(t, result.Case)
	}
}

func TestMatcher_MultipleHitsTreatedAsQueueable(t *testing.T) {
	matcher, mockCases := setupMatcherTest(t)

	rec := testCaseRecord()
	mockCases.On("FindByCitation", mock.Anything, "ABC123").Return([]domain.CaseRecord{rec, rec}, nil)

	result, err := matcher.Match(context.Background(), "ABC123")

	assert.NoError(t, err)
	assert.Equal(t, MatchQueueable, result.Outcome)
	assert.Nil(t, result.Case)
}

func TestMatcher_OutOfBoundsIsMalformed(t *testing.T) {
	matcher, mockCases := setupMatcherTest(t)

	mockCases.On("FindByCitation", mock.Anything, mock.Anything).Return([]domain.CaseRecord{}, nil)

	for _, citation := range []string{"", "12345", strings.Repeat("X", 26)} {
		result, err := matcher.Match(context.Background(), citation)
		assert.NoError(t, err)
		assert.Equal(t, MatchMalformed, result.Outcome, "citation %q", citation)
	}
}

func TestMatcher_StoreErrorPropagates(t *testing.T) {
	matcher, mockCases := setupMatcherTest(t)

	mockCases.On("FindByCitation", mock.Anything, "ABC123").Return(nil, errors.New("connection refused"))

	_, err := matcher.Match(context.Background(), "ABC123")

	assert.Error(t, err)
}
