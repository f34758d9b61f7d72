// Package directory turns a rendered directory page, saved by the browser
// driver, into a batch of observations.
//
// Page markup changes often, so every selector comes from configuration.
package directory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"streamstats-backend/internal/records"
	"streamstats-backend/internal/telemetry"
	"streamstats-backend/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("internal/directory")

const report_directory_card = "directory.card"

// Selectors locate the fields of one card. Name and Views are matched within
// Card, for games every Tag within Card is a category, for streamers
// Category is the card's category.
type Selectors struct {
	Card     string `json:"card"`
	Name     string `json:"name"`
	Views    string `json:"views"`
	Category string `json:"category"`
	Tag      string `json:"tag"`
}

type Config struct {
	Games     Selectors `json:"games"`
	Streamers Selectors `json:"streamers"`
}

var ErrMissingSelector = errors.New("missing selector")

func (s Selectors) validate(kind records.Kind) error {
	required := map[string]string{
		"card":  s.Card,
		"name":  s.Name,
		"views": s.Views,
	}
	switch kind {
	case records.KindGame:
		required["tag"] = s.Tag
	case records.KindStreamer:
		required["category"] = s.Category
	}
	for field, value := range required {
		if value == "" {
			return fmt.Errorf("%w: %s selector for %s pages", ErrMissingSelector, field, kind)
		}
	}
	return nil
}

// Parser extracts observations from saved pages.
type Parser struct {
	config Config
	tel    telemetry.API
}

func NewParser(config Config, tel telemetry.API) Parser {
	return Parser{
		config: config,
		tel:    telemetry.NewScopedAPI("directory", tel),
	}
}

// Parse dispatches to ParseGames or ParseStreamers by kind, language is only
// used for streamers.
func (p Parser) Parse(ctx context.Context, kind records.Kind, page io.Reader, language, date string) ([]records.Record, error) {
	switch kind {
	case records.KindGame:
		return p.ParseGames(ctx, page, date)
	case records.KindStreamer:
		return p.ParseStreamers(ctx, page, language, date)
	}
	return nil, fmt.Errorf("%w '%s'", records.ErrUnknownKind, kind)
}

// ParseGames reads a games directory page. Every observation is stamped with
// date.
func (p Parser) ParseGames(ctx context.Context, page io.Reader, date string) ([]records.Record, error) {
	_, span := tracer.Start(ctx, "ParseGames")
	defer span.End()

	sel := p.config.Games
	err := sel.validate(records.KindGame)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return nil, fmt.Errorf("parse games page: %w", err)
	}

	out := []records.Record{}
	doc.Find(sel.Card).Each(func(i int, card *goquery.Selection) {
		name := htmlutil.Text(card.Find(sel.Name).First())
		if name == "" {
			p.tel.ReportWarning(report_directory_card, "game card without a name", i)
			return
		}
		out = append(out, records.NewGame(records.GameObservation{
			Name:       name,
			Views:      htmlutil.Text(card.Find(sel.Views).First()),
			Categories: htmlutil.Texts(card.Find(sel.Tag)),
			Date:       date,
		}))
	})

	span.SetAttributes(attribute.Int("count", len(out)))
	return out, nil
}

// ParseStreamers reads a live channels page filtered to one language.
func (p Parser) ParseStreamers(ctx context.Context, page io.Reader, language, date string) ([]records.Record, error) {
	_, span := tracer.Start(ctx, "ParseStreamers")
	defer span.End()

	sel := p.config.Streamers
	err := sel.validate(records.KindStreamer)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		return nil, fmt.Errorf("parse streamers page: %w", err)
	}

	out := []records.Record{}
	doc.Find(sel.Card).Each(func(i int, card *goquery.Selection) {
		name := htmlutil.Text(card.Find(sel.Name).First())
		if name == "" {
			p.tel.ReportWarning(report_directory_card, "streamer card without a name", i)
			return
		}
		out = append(out, records.NewStreamer(records.StreamerObservation{
			Name:     name,
			Views:    htmlutil.Text(card.Find(sel.Views).First()),
			Category: htmlutil.Text(card.Find(sel.Category).First()),
			Language: language,
			Date:     date,
		}))
	})

	span.SetAttributes(attribute.Int("count", len(out)))
	return out, nil
}
