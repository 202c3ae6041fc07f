package items

import (
	"github.com/go-faster/jx"
)

// Marshal renders the item in the wire schema consumed downstream.
// Absent optional fields are left out rather than encoded as null.
func (i *Item) Marshal() []byte {
	var e jx.Encoder
	i.Encode(&e)
	return e.Bytes()
}

func (i *Item) Encode(e *jx.Encoder) {
	e.ObjStart()

	e.FieldStart("price")
	e.Int64(i.Price)
	e.FieldStart("id")
	e.Str(i.ExternalID)
	e.FieldStart("asset_id")
	e.Str(i.AssetID)

	if i.FloatValue != nil {
		e.FieldStart("float_value")
		e.Float64(*i.FloatValue)
	}
	if i.FloatID != nil {
		e.FieldStart("float_id")
		e.Str(*i.FloatID)
	}
	if i.PaintSeed != nil {
		e.FieldStart("paint_seed")
		e.Int(*i.PaintSeed)
	}
	if i.PaintIndex != nil {
		e.FieldStart("paint_index")
		e.Int(*i.PaintIndex)
	}

	e.FieldStart("stickers")
	e.ArrStart()
	for _, s := range i.Stickers {
		s.Encode(e)
	}
	e.ArrEnd()

	e.FieldStart("sticker_count")
	e.Int(i.StickerCount)
	e.FieldStart("name")
	e.Str(i.Name)
	e.FieldStart("source")
	e.Str(i.Source)
	e.FieldStart("store")
	e.Str(i.Source)
	e.FieldStart("currency")
	e.Str(i.Currency)

	optStr(e, "link", i.Link)
	if i.Discount != nil {
		e.FieldStart("discount")
		e.Float64(*i.Discount)
	}
	if i.ReferencePrice != nil {
		e.FieldStart("reference_price")
		e.Int64(*i.ReferencePrice)
	}
	optStr(e, "reference_kind", i.ReferenceKind)
	optStr(e, "exterior", i.Exterior)
	optStr(e, "rarity", i.Rarity)

	e.ObjEnd()
}

func (s Sticker) Encode(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("name")
	e.Str(s.Name)
	e.FieldStart("slot")
	e.Int(s.Slot)
	e.FieldStart("wear")
	e.Float64(s.WearFraction)
	if s.SkinID != nil {
		e.FieldStart("skin_id")
		e.Int64(*s.SkinID)
	}
	e.FieldStart("class_id")
	e.Str(s.ClassID)
	e.ObjEnd()
}

func optStr(e *jx.Encoder, name string, v *string) {
	if v == nil {
		return
	}
	e.FieldStart(name)
	e.Str(*v)
}
