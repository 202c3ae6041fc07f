package dashskins

import (
	"math"
	"regexp"
	"strings"
)

// CentsFromReais converts a decimal reais amount into centavos, rounding
// to the nearest centavo.
func CentsFromReais(reais float64) int64 {
	return int64(math.Round(reais * 100))
}

var (
	slugParens  = regexp.MustCompile(`[()]`)
	slugSpaces  = regexp.MustCompile(`\s+`)
	slugInvalid = regexp.MustCompile(`[^\p{L}\p{N}_\-]`)
)

// Slug renders a market hash name the way DashSkins item URLs expect it.
func Slug(marketHashName string) string {
	slug := strings.ToLower(marketHashName)
	slug = slugParens.ReplaceAllString(slug, "")
	slug = slugSpaces.ReplaceAllString(slug, "-")
	return slugInvalid.ReplaceAllString(slug, "")
}

func ItemLink(base, marketHashName, id string) string {
	return strings.TrimRight(base, "/") + "/" + Slug(marketHashName) + "/" + id
}
