package items

// Item is the canonical listing handed to the broker. Optional fields are nil
// when the source did not provide them and are omitted from the wire form.
type Item struct {
	Price        int64 // minor currency units
	ExternalID   string
	AssetID      string
	FloatValue   *float64
	FloatID      *string
	PaintSeed    *int
	PaintIndex   *int
	Stickers     []Sticker
	StickerCount int
	Name         string
	Source       string
	Currency     string

	Link           *string
	Discount       *float64
	ReferencePrice *int64 // minor units, same currency as Price
	ReferenceKind  *string
	Exterior       *string
	Rarity         *string
}

type Sticker struct {
	Name         string
	Slot         int
	WearFraction float64
	SkinID       *int64
	ClassID      string
}

const (
	CurrencyUSD = "USD"
	CurrencyBRL = "BRL"
)

const (
	ReferenceRecentTrade  = "recent_trade"
	ReferenceCurrentFloor = "current_floor"
)
