package bot

import (
	"fmt"
	"github.com/maxaizer/jobs-finder/internal/domain/models"
	"strconv"
	"strings"
)

const maxListingsInMessage = 30

func listingsToText(filter models.FilterKey, listings []models.Listing) string {

	if len(listings) == 0 {
		return fmt.Sprintf("По запросу «%s» ничего не найдено.", filter.Query)
	}

	var text strings.Builder
	text.WriteString(fmt.Sprintf("Найдено вакансий: %d\n\n", len(listings)))

	for i, listing := range listings {
		if i == maxListingsInMessage {
			text.WriteString("…\n")
			break
		}
		text.WriteString(strconv.Itoa(i+1) + ". " + listingLine(listing) + "\n" + listing.URL + "\n")
	}

	text.WriteString("\n/fav N - добавить в избранное или убрать из него, /apply N - черновик отклика.")
	return text.String()
}

func listingLine(listing models.Listing) string {
	line := listing.Title
	if listing.Company != "" {
		line += ", " + listing.Company
	}
	if listing.Location != "" {
		line += ", " + listing.Location
	}
	if listing.RegionCode != "" {
		line += " (" + listing.RegionCode + ")"
	}
	if !listing.PostedAt.IsZero() {
		line += ", " + listing.PostedAt.Format("02.01.2006")
	}
	return line
}

func favoritesToText(entries []models.FavoriteEntry) (text string) {
	for i, entry := range entries {
		text += strconv.Itoa(i+1) + ". " + entry.Title
		if entry.Company != "" {
			text += ", " + entry.Company
		}
		if entry.RegionCode != "" {
			text += " (" + entry.RegionCode + ")"
		}
		text += "\n" + entry.URL + "\n"
	}
	return text
}

func topSearchesToText(top []models.TopSearch) string {
	if len(top) == 0 {
		return "Пока нет популярных запросов."
	}

	text := "Популярные запросы:\n"
	for i, search := range top {
		text += strconv.Itoa(i+1) + ". " + search.Query
		if search.Region != "" {
			text += " (" + search.Region + ")"
		}
		text += ": " + strconv.Itoa(search.Count) + "\n"
	}
	return text
}
