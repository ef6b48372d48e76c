package constants

import (
	"strings"
)

// Category is the transaction type printed on or inferred from a receipt.
type Category string

const (
	Food        Category = "YİYECEK"
	Fuel        Category = "AKARYAKIT"
	Parking     Category = "OTOPARK"
	Stationery  Category = "KIRTASİYE"
	Health      Category = "SAĞLIK"
	Cleaning    Category = "TEMİZLİK"
	Shopping    Category = "ALIŞVERİŞ"
	Electronics Category = "ELEKTRONİK"
	Other       Category = "DİĞER"
)

var allCategories = []Category{
	Food,
	Fuel,
	Parking,
	Stationery,
	Health,
	Cleaning,
	Shopping,
	Electronics,
	Other,
}

// synonyms are keyed by the folded form (see Fold).
var synonyms = map[string]Category{
	"yiyecek":     Food,
	"yemek":       Food,
	"gida":        Food,
	"restoran":    Food,
	"food":        Food,
	"meals":       Food,
	"akaryakit":   Fuel,
	"yakit":       Fuel,
	"benzin":      Fuel,
	"mazot":       Fuel,
	"motorin":     Fuel,
	"fuel":        Fuel,
	"otopark":     Parking,
	"park":        Parking,
	"parking":     Parking,
	"kirtasiye":   Stationery,
	"stationery":  Stationery,
	"saglik":      Health,
	"ilac":        Health,
	"eczane":      Health,
	"health":      Health,
	"temizlik":    Cleaning,
	"cleaning":    Cleaning,
	"alisveris":   Shopping,
	"market":      Shopping,
	"shopping":    Shopping,
	"elektronik":  Electronics,
	"electronics": Electronics,
	"diger":       Other,
	"other":       Other,
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps a free-text category label onto the closed set.
// Unknown labels map to Other with ok=false.
func Canonicalize(input string) (Category, bool) {
	normalized := Fold(input)
	if normalized == "" {
		return Other, false
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == Fold(string(cat)) {
			return cat, true
		}
	}

	return Other, false
}

var foldReplacer = strings.NewReplacer(
	"ı", "i", "İ", "i", "I", "i",
	"ş", "s", "Ş", "s",
	"ğ", "g", "Ğ", "g",
	"ü", "u", "Ü", "u",
	"ö", "o", "Ö", "o",
	"ç", "c", "Ç", "c",
	"i̇", "i",
)

// Fold lowercases s and strips Turkish diacritics so that OCR and LLM
// variants ("SAĞLIK", "saglik", "SAGLIK") compare equal.
func Fold(s string) string {
	return strings.ToLower(foldReplacer.Replace(strings.TrimSpace(s)))
}
