package llm

import (
	"strings"

	"github.com/joseph-ayodele/receipts-extractor/constants"
)

const maxPromptChars = 6000

// BuildSystemPrompt returns the Turkish instruction block shared by every
// provider.
func BuildSystemPrompt() string {
	parts := []string{
		"Sen bir fiş/fatura metni yorumlayıcısısın. Metni incele ve YALNIZCA JSON döndür.",
		"Alanlar: " + strings.Join(FieldNames, ", ") + ".",
		`Toplam tutar (tutar) ve KDV tutarı (kdv) Türk Lirası biçiminde olmalı, örn. "1.234,56".`,
		`KDV oranını (kdvOran) "%10" biçiminde döndür.`,
		"İşlem tarihi (islemTarihi) dd.mm.yyyy biçiminde olmalı.",
		"İşlem türü (islemTuru) yalnızca şu değerlerden biri olabilir: " + quoteAll(constants.AsStringSlice()) + ".",
		`Ödeme türü (odemeTuru) yalnızca şu değerlerden biri olabilir: "Kredi Kartı", "Nakit", "Mobil Ödeme", "Diğer".`,
		"Emin olmadığın alanlar için null kullan. JSON dışında hiçbir şey yazma.",
	}
	return strings.Join(parts, " ")
}

// BuildUserPrompt joins the OCR lines, truncating very long inputs.
func BuildUserPrompt(lines []string) string {
	text := strings.TrimSpace(strings.Join(lines, "\n"))
	var b strings.Builder
	b.WriteString("Metin (satırlar):\n")
	if len(text) > maxPromptChars {
		cut := maxPromptChars
		for cut > 0 && !isRuneStart(text[cut]) {
			cut--
		}
		b.WriteString(text[:cut])
		b.WriteString("\n…(kısaltıldı)")
	} else {
		b.WriteString(text)
	}
	return b.String()
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

func quoteAll(vals []string) string {
	q := make([]string, len(vals))
	for i, v := range vals {
		q[i] = `"` + v + `"`
	}
	return strings.Join(q, ", ")
}
