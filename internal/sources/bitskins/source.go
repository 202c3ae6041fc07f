package bitskins

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/samber/lo"

	"skin-monitor/internal/sources/webapi"
	"skin-monitor/internal/stories/items"
	"skin-monitor/internal/stories/pipeline"
	"skin-monitor/internal/stories/pricing"
)

type Enricher interface {
	Quote(ctx context.Context, name string) (*pricing.Quote, error)
}

// Source searches BitSkins and optionally attaches a Steam reference price.
type Source struct {
	cfg      Config
	client   *webapi.Client
	enricher Enricher
	logger   *slog.Logger
}

// New builds the source. enricher may be nil to skip reference prices.
func New(cfg Config, client *webapi.Client, enricher Enricher, logger *slog.Logger) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Source{
		cfg:      cfg,
		client:   client,
		enricher: enricher,
		logger:   logger.With("source", Name),
	}
}

func (s *Source) Name() string {
	return Name
}

func (s *Source) Categories() []string {
	var categories []string
	if s.cfg.SearchWeapons {
		categories = append(categories, CategoryWeapons)
	}
	if s.cfg.SearchKnives {
		categories = append(categories, CategoryKnives)
	}
	return categories
}

func (s *Source) Fetch(ctx context.Context, category string) (*pipeline.Page[Record], error) {
	body := BuildQuery(s.cfg, category).Marshal()

	req, err := http.NewRequest(http.MethodPost, s.cfg.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build bitskins request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp searchResponse
	if err := s.client.DoJSON(ctx, req, &resp); err != nil {
		return nil, err
	}

	return &pipeline.Page[Record]{Records: resp.List, Total: resp.Counter.Filtered}, nil
}

func (s *Source) Discount(rec Record) float64 {
	return rec.Discount
}

func (s *Source) Transform(ctx context.Context, rec Record) (*items.Item, error) {
	item, err := ToItem(rec)
	if err != nil {
		return nil, err
	}
	if s.enricher == nil {
		return item, nil
	}

	quote, err := s.enricher.Quote(ctx, item.Name)
	if err != nil {
		return nil, err
	}
	if price, kind, ok := quote.Reference(); ok {
		item.ReferencePrice = &price
		item.ReferenceKind = &kind
	}
	return item, nil
}

// ToItem maps a listing into the canonical item. A listing without an id or
// a positive price is rejected as invalid.
func ToItem(rec Record) (*items.Item, error) {
	if rec.ID == "" {
		return nil, pipeline.Invalid("bitskins listing without id")
	}
	if !rec.Price.Set || rec.Price.Value <= 0 {
		return nil, pipeline.Invalid("bitskins listing %s has no price", rec.ID)
	}

	name := rec.Name
	if name == "" {
		name = "Unknown"
	}

	stickers := lo.Map(rec.Stickers, func(st RawSticker, _ int) items.Sticker {
		return items.Sticker{
			Name:         st.Name,
			Slot:         lo.FromPtr(st.Slot),
			WearFraction: lo.FromPtr(st.Wear),
			SkinID:       st.SkinID.Ptr(),
			ClassID:      st.ClassID.String(),
		}
	})

	stickerCount := len(stickers)
	if rec.StickerCounter != nil {
		stickerCount = *rec.StickerCounter
	}

	return &items.Item{
		Price:        CentsFromMilli(rec.Price.Value),
		ExternalID:   rec.ID.String(),
		AssetID:      rec.AssetID.String(),
		FloatValue:   rec.FloatValue,
		FloatID:      rec.FloatID.Ptr(),
		PaintSeed:    rec.PaintSeed,
		PaintIndex:   rec.PaintID,
		Stickers:     stickers,
		StickerCount: stickerCount,
		Name:         name,
		Source:       Name,
		Currency:     items.CurrencyUSD,
		Discount:     lo.ToPtr(rec.Discount),
	}, nil
}
