package bitskins

import (
	"skin-monitor/internal/sources/webapi"
)

const (
	Name = "bitskins"

	CategoryWeapons = "weapons"
	CategoryKnives  = "knives"

	DefaultBaseURL = "https://api.bitskins.com/market/search/730"
)

// Filter ids used by the BitSkins search API.
var (
	knifeTypeIDs     = []int{1}
	weaponExteriors  = []int{1, 2}       // Factory New, Minimal Wear
	weaponSubtypeIDs = []int{13, 42, 44} // AK-47, M4A1-S, M4A4
)

type Config struct {
	BaseURL       string
	MinDiscount   float64
	SearchKnives  bool
	SearchWeapons bool
	PriceFrom     int64 // thousandths of a dollar
	PriceTo       int64
	PageLimit     int
}

// Record is one listing as returned by the search endpoint. Pointer fields
// are absent when the API leaves them out or sends null.
type Record struct {
	ID             webapi.FlexString `json:"id"`
	AssetID        webapi.FlexString `json:"asset_id"`
	Name           string            `json:"name"`
	Price          webapi.FlexInt    `json:"price"`
	SuggestedPrice webapi.FlexInt    `json:"suggested_price"`
	Discount       float64           `json:"discount"`
	FloatValue     *float64          `json:"float_value"`
	FloatID        webapi.FlexString `json:"float_id"`
	PaintSeed      *int              `json:"paint_seed"`
	PaintID        *int              `json:"paint_id"`
	Stickers       []RawSticker      `json:"stickers"`
	StickerCounter *int              `json:"sticker_counter"`
}

type RawSticker struct {
	Name    string            `json:"name"`
	Slot    *int              `json:"slot"`
	Wear    *float64          `json:"wear"`
	SkinID  webapi.FlexInt    `json:"skin_id"`
	ClassID webapi.FlexString `json:"class_id"`
}

type searchResponse struct {
	List    []Record `json:"list"`
	Counter struct {
		Filtered int `json:"filtered"`
	} `json:"counter"`
}
