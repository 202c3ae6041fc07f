package bitskins

// CentsFromMilli converts a BitSkins price in thousandths of a dollar into
// cents, truncating the sub-cent remainder.
func CentsFromMilli(milli int64) int64 {
	return milli / 10
}
