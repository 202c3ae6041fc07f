package dashskins

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/lo"

	"skin-monitor/internal/sources/webapi"
	"skin-monitor/internal/stories/items"
	"skin-monitor/internal/stories/pipeline"
)

// Source searches the DashSkins listing API. Prices are in BRL.
type Source struct {
	cfg    Config
	client *webapi.Client
	now    func() time.Time
	logger *slog.Logger
}

func New(cfg Config, client *webapi.Client, logger *slog.Logger) *Source {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.ItemURL == "" {
		cfg.ItemURL = DefaultItemURL
	}
	return &Source{
		cfg:    cfg,
		client: client,
		now:    time.Now,
		logger: logger.With("source", Name),
	}
}

func (s *Source) Name() string {
	return Name
}

func (s *Source) Categories() []string {
	var categories []string
	if s.cfg.SearchRifles {
		categories = append(categories, CategoryRifles)
	}
	if s.cfg.SearchKnives {
		categories = append(categories, CategoryKnives)
	}
	return categories
}

func (s *Source) Fetch(ctx context.Context, category string) (*pipeline.Page[Record], error) {
	query := BuildQuery(s.cfg, category, s.now())

	req, err := http.NewRequest(http.MethodGet, s.cfg.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build dashskins request: %w", err)
	}

	var resp listingResponse
	if err := s.client.DoJSON(ctx, req, &resp); err != nil {
		return nil, err
	}

	return &pipeline.Page[Record]{Records: resp.Results, Total: resp.Count}, nil
}

func (s *Source) Discount(rec Record) float64 {
	return rec.Discount
}

func (s *Source) Transform(_ context.Context, rec Record) (*items.Item, error) {
	return ToItem(rec, s.cfg.ItemURL)
}

// ToItem maps a listing into the canonical item. The listing's Steam price
// becomes the current floor reference.
func ToItem(rec Record, itemURL string) (*items.Item, error) {
	if rec.ID == "" {
		return nil, pipeline.Invalid("dashskins listing without _id")
	}
	if rec.Price == nil || *rec.Price <= 0 {
		return nil, pipeline.Invalid("dashskins listing %s has no price", rec.ID)
	}

	name := rec.MarketHashName
	if name == "" {
		name = "Unknown"
	}

	wear := lo.FromPtr(rec.WearData)
	stickers := lo.Map(wear.Stickers, func(st RawSticker, idx int) items.Sticker {
		slot := idx
		if st.Slot != nil {
			slot = *st.Slot
		}
		return items.Sticker{
			Name:         st.Name,
			Slot:         slot,
			WearFraction: lo.FromPtr(st.Wear),
			SkinID:       st.StickerID.Ptr(),
			ClassID:      st.ClassID.String(),
		}
	})

	item := &items.Item{
		Price:        CentsFromReais(*rec.Price),
		ExternalID:   rec.ID.String(),
		AssetID:      rec.AssetID.String(),
		FloatValue:   wear.FloatValue,
		PaintSeed:    wear.PaintSeed,
		PaintIndex:   wear.PaintIndex,
		Stickers:     stickers,
		StickerCount: len(stickers),
		Name:         name,
		Source:       Name,
		Currency:     items.CurrencyBRL,
		Link:         lo.ToPtr(ItemLink(itemURL, name, rec.ID.String())),
		Discount:     lo.ToPtr(rec.Discount),
		Exterior:     lo.EmptyableToPtr(rec.Exterior),
		Rarity:       lo.EmptyableToPtr(rec.Rarity),
	}

	if rec.SteamPrice != nil && *rec.SteamPrice > 0 {
		item.ReferencePrice = lo.ToPtr(CentsFromReais(*rec.SteamPrice))
		item.ReferenceKind = lo.ToPtr(items.ReferenceCurrentFloor)
	}
	return item, nil
}
