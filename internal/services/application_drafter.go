package services

import (
	"context"
	"fmt"
	"github.com/maxaizer/jobs-finder/internal/domain/models"
	log "github.com/sirupsen/logrus"
	"strings"
)

type aiClient interface {
	GenerateResponse(ctx context.Context, request string) (string, error)
}

var draftLanguages = map[string]string{
	"ru": "на русском языке",
	"en": "in English",
	"de": "auf Deutsch",
	"fr": "en français",
}

type ApplicationDrafter struct {
	aiClient aiClient
}

func NewApplicationDrafter(aiClient aiClient) *ApplicationDrafter {
	return &ApplicationDrafter{aiClient: aiClient}
}

// DraftApplication writes a short cover letter for the listing. Unknown languages fall back to Russian.
func (a *ApplicationDrafter) DraftApplication(ctx context.Context, listing models.Listing, language string) (string, error) {
	response, err := a.aiClient.GenerateResponse(ctx, a.draftRequest(listing, language))
	if err != nil {
		return "", err
	}

	response = strings.TrimSpace(response)
	if response == "" {
		return "", fmt.Errorf("empty draft for listing %v", listing.Key())
	}

	log.Infof("drafted application for listing %v", listing.Key())
	return response, nil
}

func (a *ApplicationDrafter) draftRequest(listing models.Listing, language string) (request string) {

	languageHint, ok := draftLanguages[language]
	if !ok {
		languageHint = draftLanguages["ru"]
	}

	request = "Вакансия: " + listing.Title

	if listing.Company != "" {
		request += " Компания: " + listing.Company
	}
	if listing.Location != "" {
		request += " Место: " + listing.Location
	}
	if listing.EmploymentType != "" {
		request += " Занятость: " + listing.EmploymentType
	}
	if listing.Snippet != "" {
		request += " Описание: " + listing.Snippet
	}

	request += " Напиши короткое сопроводительное письмо для отклика на эту вакансию " + languageHint +
		". Не больше 150 слов, без заголовков и без выдуманных фактов о кандидате."
	return request
}
