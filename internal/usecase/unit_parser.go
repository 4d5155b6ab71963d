package usecase

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/chemprice/backend/internal/domain"
)

const (
	defaultPackageKg = 1.0
	kgPerGallon      = 3.785
)

// Compiled patterns for size extraction
var (
	// "25KG", "500 G", "1,5 LT", "2 GALON", plurals "25KGS", "2 GALONES"
	quantityPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(KG|GALON|LT|ML|L|G)(?:ES|S)?\b`)

	// trailing digits of a product code, e.g. "SOS-025"
	codeSizePattern = regexp.MustCompile(`(\d+)\s*$`)

	// every trailing size suffix, optionally introduced by a standalone "X"
	sizeSuffixPattern = regexp.MustCompile(`(?:(?:\s*\bX)?\s*\d+(?:[.,]\d+)?\s*(?:KG|GALON|LT|ML|L|G)(?:ES|S)?\s*)+$`)
)

// literalSizes are last-resort phrases checked when no quantity could be parsed
var literalSizes = []struct {
	phrase string
	kg     float64
}{
	{"1LT", 1.0},
	{"1 LT", 1.0},
	{"GALON", kgPerGallon},
	{"250ML", 0.25},
}

// Vocabulary holds the curated word lists used to classify products by name
type Vocabulary struct {
	LiquidWords []string
	HazardWords []string
}

// DefaultVocabulary returns the stock liquid and hazard indicator lists
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		LiquidWords: []string{"LIQ", "ACIDO", "JARABE", "ESENCIA", "SOLUCION"},
		HazardWords: []string{"SULFURICO", "NITRICO", "CLORHIDRICO", "AMONIACO"},
	}
}

// UnitParser extracts package size, form and hazard class from product names.
// It holds no mutable state: the same input always yields the same UnitInfo.
type UnitParser struct {
	liquidWords []string
	hazardWords []string
}

// NewUnitParser creates a parser for the given vocabulary
func NewUnitParser(vocab Vocabulary) *UnitParser {
	return &UnitParser{
		liquidWords: normalizeWords(vocab.LiquidWords),
		hazardWords: normalizeWords(vocab.HazardWords),
	}
}

// Parse reads name (and code as a size fallback) into a UnitInfo
func (p *UnitParser) Parse(name, code string) domain.UnitInfo {
	key := NormalizeKey(name)

	form := domain.FormPowder
	if containsAny(key, p.liquidWords) {
		form = domain.FormLiquid
	}

	return domain.UnitInfo{
		SizeKg:    packageSizeKg(key, code),
		Form:      form,
		Hazardous: containsAny(key, p.hazardWords),
	}
}

// packageSizeKg resolves the package size of a normalized name; always > 0
func packageSizeKg(key, code string) float64 {
	for _, m := range quantityPattern.FindAllStringSubmatch(key, -1) {
		qty, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil || qty <= 0 {
			continue
		}
		switch m[2] {
		case "G", "ML":
			return qty / 1000
		case "GALON":
			return qty * kgPerGallon
		default:
			return qty
		}
	}

	if m := codeSizePattern.FindStringSubmatch(strings.TrimSpace(code)); m != nil {
		if qty, err := strconv.ParseFloat(m[1], 64); err == nil && qty > 0 {
			return qty
		}
	}

	for _, l := range literalSizes {
		if strings.Contains(key, l.phrase) {
			return l.kg
		}
	}

	return defaultPackageKg
}

// BaseName strips the trailing size/unit suffix from a product name.
// BaseName(BaseName(s)) == BaseName(s).
func BaseName(name string) string {
	key := NormalizeKey(name)
	return strings.TrimSpace(sizeSuffixPattern.ReplaceAllString(key, ""))
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if w != "" && strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func normalizeWords(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if n := NormalizeKey(w); n != "" {
			out = append(out, n)
		}
	}
	return out
}
