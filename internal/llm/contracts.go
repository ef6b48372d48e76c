package llm

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Fields is the Turkish-keyed object the extraction model is asked to return.
// Every value is optional; models answer with strings, numbers or null.
type Fields struct {
	FirmaAd     Loose `json:"firmaAd"`
	FisNo       Loose `json:"fisNo"`
	Tutar       Loose `json:"tutar"`
	Kdv         Loose `json:"kdv"`
	KdvOran     Loose `json:"kdvOran"`
	IslemTarihi Loose `json:"islemTarihi"`
	IslemTuru   Loose `json:"islemTuru"`
	OdemeTuru   Loose `json:"odemeTuru"`
}

// FieldNames lists the keys of Fields in prompt order.
var FieldNames = []string{"firmaAd", "fisNo", "tutar", "kdv", "kdvOran", "islemTarihi", "islemTuru", "odemeTuru"}

// Loose is a JSON scalar decoded as text. null and "" both mean absent.
type Loose struct {
	Value string
	Set   bool
}

func (l *Loose) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*l = Loose{}
		return nil
	}
	var s string
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			var v bool
			if err := json.Unmarshal(b, &v); err != nil {
				return err
			}
			s = strconv.FormatBool(v)
		} else {
			s = n.String()
		}
	}
	s = strings.TrimSpace(s)
	*l = Loose{Value: s, Set: s != "" && !strings.EqualFold(s, "null")}
	return nil
}

func (l Loose) MarshalJSON() ([]byte, error) {
	if !l.Set {
		return []byte("null"), nil
	}
	return json.Marshal(l.Value)
}

// Ptr returns nil for absent values.
func (l Loose) Ptr() *string {
	if !l.Set {
		return nil
	}
	v := l.Value
	return &v
}
