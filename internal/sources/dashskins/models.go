package dashskins

import (
	"skin-monitor/internal/sources/webapi"
)

const (
	Name = "dashskins"

	CategoryRifles = "Rifle"
	CategoryKnives = "Faca"

	DefaultBaseURL   = "https://dashskins.com.br/api/listing"
	DefaultItemURL   = "https://dashskins.com.br/item"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

type Config struct {
	BaseURL      string
	ItemURL      string
	MinDiscount  float64
	SearchKnives bool
	SearchRifles bool
	PageLimit    int
}

type Record struct {
	ID             webapi.FlexString `json:"_id"`
	AssetID        webapi.FlexString `json:"assetid"`
	MarketHashName string            `json:"market_hash_name"`
	Price          *float64          `json:"price"` // reais
	SteamPrice     *float64          `json:"steamPrice"`
	Discount       float64           `json:"discount"`
	Exterior       string            `json:"exterior"`
	Weapon         string            `json:"weapon"`
	ItemType       string            `json:"item_type"`
	Rarity         string            `json:"rarity"`
	Quality        string            `json:"quality"`
	WearData       *WearData         `json:"wear_data"`
}

type WearData struct {
	FloatValue *float64     `json:"floatvalue"`
	PaintSeed  *int         `json:"paintseed"`
	PaintIndex *int         `json:"paintindex"`
	Stickers   []RawSticker `json:"stickers"`
}

type RawSticker struct {
	Name      string            `json:"name"`
	Slot      *int              `json:"slot"`
	Wear      *float64          `json:"wear"`
	StickerID webapi.FlexInt    `json:"stickerId"`
	ClassID   webapi.FlexString `json:"classId"`
}

type listingResponse struct {
	Results []Record `json:"results"`
	Count   int      `json:"count"`
}
