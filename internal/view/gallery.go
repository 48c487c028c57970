package view

import (
	"strings"
	"unicode/utf8"

	"dataviews/internal/domain"
)

// galleryDetailFields caps the supplementary fields shown on a card.
const galleryDetailFields = 3

// GalleryCard is one record rendered as a card.
type GalleryCard struct {
	Record  domain.Record  `json:"record"`
	Title   string         `json:"title"`
	Initial string         `json:"initial"`
	Fields  []DisplayField `json:"fields"`
}

// Gallery renders each record as a card titled by its primary field, with up
// to three other fields beneath. Blank values are left off the card.
func Gallery(schema *domain.TableSchema, records []domain.Record, loc Locale) []GalleryCard {
	primary, _ := schema.PrimaryField()
	display := make([]domain.FieldSchema, 0, galleryDetailFields)
	for _, f := range schema.Fields {
		if f.ID == primary.ID {
			continue
		}
		if len(display) == galleryDetailFields {
			break
		}
		display = append(display, f)
	}

	cards := make([]GalleryCard, 0, len(records))
	for _, r := range records {
		title := recordTitle(schema, r, loc)
		card := GalleryCard{
			Record:  r.Clone(),
			Title:   title,
			Initial: initial(title),
			Fields:  []DisplayField{},
		}
		for _, f := range display {
			if d, ok := cardField(f, r.Value(f.ID), loc); ok {
				card.Fields = append(card.Fields, d)
			}
		}
		cards = append(cards, card)
	}
	return cards
}

func initial(title string) string {
	r, _ := utf8.DecodeRuneInString(title)
	if r == utf8.RuneError {
		return ""
	}
	return strings.ToUpper(string(r))
}
