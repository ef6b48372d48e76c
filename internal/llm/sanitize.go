package llm

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"strconv"
	"strings"
)

// synonyms maps keys models commonly emit instead of the contract names.
var synonyms = map[string]string{
	"firmaAdi":     "firmaAd",
	"firma_ad":     "firmaAd",
	"firma":        "firmaAd",
	"isletmeAdi":   "firmaAd",
	"fisNumarasi":  "fisNo",
	"fis_no":       "fisNo",
	"toplam":       "tutar",
	"toplamTutar":  "tutar",
	"kdvTutari":    "kdv",
	"kdv_oran":     "kdvOran",
	"kdvOrani":     "kdvOran",
	"tarih":        "islemTarihi",
	"islem_tarihi": "islemTarihi",
	"islemTipi":    "islemTuru",
	"kategori":     "islemTuru",
	"odemeTipi":    "odemeTuru",
	"odeme_turu":   "odemeTuru",
}

// NormalizeAndSanitizeJSON
// - renames known synonyms onto the contract keys
// - coerces numbers to strings and drops null/empty values
// - removes unknown keys so the strict schema can validate
func NormalizeAndSanitizeJSON(raw []byte, logger *slog.Logger) ([]byte, []string, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, nil, fmt.Errorf("sanitize: decode: %w", err)
	}

	dropped := make([]string, 0, 4)
	for from, to := range synonyms {
		if v, ok := m[from]; ok {
			if _, exists := m[to]; !exists {
				m[to] = v
			}
			delete(m, from)
			dropped = append(dropped, from+"->"+to)
		}
	}

	allowed := make(map[string]struct{}, len(FieldNames))
	for _, k := range FieldNames {
		allowed[k] = struct{}{}
	}
	for k, v := range maps.Clone(m) {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
			dropped = append(dropped, k+"(unknown)")
			continue
		}
		switch t := v.(type) {
		case nil:
			delete(m, k)
		case float64:
			m[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case string:
			if s := strings.TrimSpace(t); s == "" || strings.EqualFold(s, "null") {
				delete(m, k)
			} else {
				m[k] = s
			}
		default:
			delete(m, k)
			dropped = append(dropped, k+"(type)")
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, dropped, fmt.Errorf("sanitize: encode: %w", err)
	}
	if len(dropped) > 0 {
		logger.Warn("llm.extract.normalize_sanitize", "dropped", dropped)
	}
	return out, dropped, nil
}
