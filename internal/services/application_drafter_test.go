package services

import (
	"context"
	"github.com/maxaizer/jobs-finder/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"strings"
	"testing"
)

func Test_ApplicationDrafter_ShouldDescribeListingInPrompt(t *testing.T) {
	ai := &mockAiClient{}
	ai.On("GenerateResponse", mock.Anything, mock.MatchedBy(func(request string) bool {
		return strings.Contains(request, "Вакансия: Go Engineer") &&
			strings.Contains(request, "Компания: Helvetic") &&
			strings.Contains(request, "in English")
	})).Return("  Dear hiring team...  ", nil).Once()

	drafter := NewApplicationDrafter(ai)
	job := models.Listing{ID: "1", Source: models.SourceIndeed, Title: "Go Engineer", Company: "Helvetic"}

	draft, err := drafter.DraftApplication(context.Background(), job, "en")

	assert.NoError(t, err)
	assert.Equal(t, "Dear hiring team...", draft)
	ai.AssertExpectations(t)
}

func Test_ApplicationDrafter_WhenUnknownLanguage_ShouldFallbackToRussian(t *testing.T) {
	drafter := NewApplicationDrafter(&mockAiClient{})

	request := drafter.draftRequest(models.Listing{Title: "Go"}, "xx")

	assert.Contains(t, request, "на русском языке")
	assert.NotContains(t, request, "Компания")
}

func Test_ApplicationDrafter_WhenEmptyResponse_ShouldFail(t *testing.T) {
	ai := &mockAiClient{}
	ai.On("GenerateResponse", mock.Anything, mock.Anything).Return("   ", nil)

	_, err := NewApplicationDrafter(ai).DraftApplication(context.Background(), models.Listing{ID: "1"}, "ru")

	assert.Error(t, err)
}
