package parse

import (
	"regexp"
	"sync"

	"github.com/joseph-ayodele/receipts-extractor/constants"
)

// RE2's \b only knows ASCII word characters, which breaks on words ending
// in Ş, İ or Ğ. These bracket a keyword with Unicode-aware boundaries.
const (
	wordStart = `(?:^|[^\p{L}\p{N}_])`
	wordEnd   = `(?:[^\p{L}\p{N}_]|$)`
)

// word matches any of alts as a whole word. Group 1 holds the keyword.
func word(alts string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + wordStart + `(` + alts + `)` + wordEnd)
}

// prefixed matches alts at a word start; for keywords ending in punctuation
// that may be glued to what follows ("NO:5", "MAH.").
func prefixed(alts string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)` + wordStart + `(` + alts + `)`)
}

// PaymentPattern maps a keyword pattern onto a payment type.
type PaymentPattern struct {
	Type constants.PaymentType
	Re   *regexp.Regexp
}

// Patterns is the table of compiled receipt patterns every extractor reads.
// It is built once and never mutated; share it freely across goroutines.
//
// Business, address and VKN patterns expect Turkish upper-cased input;
// category and payment patterns expect constants.Fold'ed input.
type Patterns struct {
	Dates          []*regexp.Regexp
	DateSeparator  *regexp.Regexp
	ReceiptNumbers []*regexp.Regexp
	LineItem       *regexp.Regexp
	LineItemAlt    *regexp.Regexp

	VATLabel        *regexp.Regexp
	TotalLabel      *regexp.Regexp
	InclusiveMarker *regexp.Regexp
	AmountToken     *regexp.Regexp
	VATKeywords     []string
	TotalKeywords   []string

	Category *regexp.Regexp
	Payments []PaymentPattern

	LegalSuffixes     *regexp.Regexp
	Addresses         []*regexp.Regexp
	VKN               *regexp.Regexp
	NoiseLabel        *regexp.Regexp
	BoilerplatePrefix []*regexp.Regexp
	TrailingLegalForm *regexp.Regexp
	NameLineClean     *regexp.Regexp

	DateOnly      *regexp.Regexp
	NumericOnly   *regexp.Regexp
	NumericOrTime *regexp.Regexp
	LongDigitRun  *regexp.Regexp
}

// DefaultPatterns returns the process-wide pattern table.
var DefaultPatterns = sync.OnceValue(newPatterns)

func newPatterns() *Patterns {
	return &Patterns{
		Dates: []*regexp.Regexp{
			regexp.MustCompile(`\b\d{1,2}[./\\\s-]\d{1,2}[./\\\s-]\d{4}\b`), // DD.MM.YYYY
			regexp.MustCompile(`\b\d{4}[./\\\s-]\d{1,2}[./\\\s-]\d{1,2}\b`), // YYYY.MM.DD
			regexp.MustCompile(`\b\d{1,2}[./\\\s-]\d{1,2}[./\\\s-]\d{2}\b`), // DD.MM.YY
			regexp.MustCompile(`\b\d{2}[./\\\s-]\d{1,2}[./\\\s-]\d{1,2}\b`), // YY.MM.DD
		},
		DateSeparator: regexp.MustCompile(`[./\\\s-]`),
		ReceiptNumbers: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(F[İI][ŞS]\s*NO|BELGE\s*NO|SER[İI]\s*NO|MAKBUZ\s*NO|BNO)\s*[:.]?\s*([A-Z0-9]+)`),
			regexp.MustCompile(`^(\d{6,})`),
		},
		LineItem:    regexp.MustCompile(`(?i)(.+?)\s+(\d+)\s*[x*]\s*([\d.,]+)\s+([\d.,]+)\s*(TL)?`),
		LineItemAlt: regexp.MustCompile(`(?i)(.+?)\s+(\d+)\s+([\d.,]+)\s*(TL)?`),

		VATLabel:        regexp.MustCompile(`(?i)(TOP\s*KDV|KDV)`),
		TotalLabel:      regexp.MustCompile(`(?i)(GENEL\s+TOPLAM|KDV\s+DAH[İI]L\s+TOPLAM|TOPLAM|ÖDENECEK|TOTAL|SATI[ŞS]\s+TU)`),
		InclusiveMarker: regexp.MustCompile(`(?i)(DAH[İI]L|GENEL|ÖDENECEK)`),
		AmountToken:     regexp.MustCompile(`\b(?:\d{1,3}(?:[.,\s]\d{3})*(?:[.,]\d{1,2})?|\d+(?:[.,]\d{1,2})?)\b`),
		VATKeywords:     []string{"toplam kdv", "kdv"},
		TotalKeywords:   []string{"genel toplam", "toplam tutar", "toplam"},

		Category: regexp.MustCompile(`(yiyecek|yemek|otopark|park|akaryakit|yakit|benzin|motorin|kirtasiye|saglik|temizlik)\s*[^0-9\s]*(\d{1,3})?`),
		Payments: []PaymentPattern{
			{
				Type: constants.PaymentCard,
				Re:   regexp.MustCompile(`kredi\s*karti|k\.\s*karti|kart|credit\s*card|visa|mastercard|maestro|temassiz|` + wordStart + `(?:mc|vpos|pos)` + wordEnd),
			},
			{
				Type: constants.PaymentCash,
				Re:   regexp.MustCompile(`nakit|pesin|cash`),
			},
		},

		LegalSuffixes: word(`A\.\s?Ş\.?|A\s?Ş|LTD\.?\s*[ŞS]T[İI]\.?|LTDSTI|T[İI]C\.?|[ŞS]T[İI]\.?|KOLL\.\s*[ŞS]T[İI]\.?|ANON[İI]M|L[İI]M[İI]TED|GIDA|TARIM|SAN\.?|SANAY[İI]|T[İI]CARET|DA[ĞG]ITIM|H[İI]ZMETLER[İI]|YATIRIM|[İI]THALAT|[İI]HRACAT`),
		Addresses: []*regexp.Regexp{
			prefixed(`MAH\.|CAD\.|SK\.|SOK\.|APT\.|BLV\.|NO\s*:|KAPI\s+NO\s*:|V\.\s?D\.`),
			word(`MAHALLES[İI]|MAH|CADDES[İI]|CAD|SOKAK|SOKA[ĞG]I|BULVARI|DA[İI]RE|[İI]L[ÇC]E|[İI]L|SEMT[İI]|KÖYÜ`),
			word(`[İI]STANBUL|ANKARA|[İI]ZM[İI]R|ADANA|BURSA|ANTALYA|KOCAEL[İI]|KONYA|TR|TÜRK[İI]YE`),
			word(`POSTA\s+KODU`),
			word(`VERG[İI]\s+DA[İI]RES[İI]|VD`),
		},
		VKN:        regexp.MustCompile(`(?i)(?:VKN|TCKN|VERG[İI]\s+NO|VERG[İI]\s+K[İI]ML[İI]K\s+NO)\s*[:.]?\s*(\d{10,11})(?:\D|$)`),
		NoiseLabel: regexp.MustCompile(`(?i)^(?:PRMETRE TAMAMLANDI|RAPOR BA[ŞS]LANGICI|F[İI][ŞS] NO|SATI[ŞS] F[İI][ŞS][İI]|BELGE NO|GMU-\d+|SATI[ŞS] NO|SER[İI] NO|YIGINNO|TOPLAM)[\s\d:.-]*$`),
		BoilerplatePrefix: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^(?:PRMETRE TAMAMLANDI|RAPOR BA[ŞS]LANGICI|F[İI][ŞS] NO|SATI[ŞS] F[İI][ŞS][İI]|BELGE NO|GMU-\d+|SATI[ŞS] NO|SER[İI] NO|YIGINNO)[\s\d:.-]*`),
			regexp.MustCompile(`^[^\p{L}\p{N}]+`),
		},
		TrailingLegalForm: regexp.MustCompile(`(?i)(?:^|\s+)(?:A\.\s?Ş\.?|A\s?Ş|LTD\.?\s*[ŞS]T[İI]\.?|LTDSTI|LTD\.?|[ŞS]T[İI]\.?|KOLL\.?|T[İI]C\.?|VE|SAN\.?|SANAY[İI]|T[İI]CARET|ANON[İI]M(?:\s+[ŞS][İI]RKET[İI])?|L[İI]M[İI]TED(?:\s+[ŞS][İI]RKET[İI])?|[ŞS][İI]RKET[İI])[\s.,]*$`),
		NameLineClean:     regexp.MustCompile(`[^A-ZÇĞİÖŞÜ\s&.,]`),

		DateOnly:      regexp.MustCompile(`^\d{1,2}[./\\\s-]\d{1,2}[./\\\s-]\d{2,4}$`),
		NumericOnly:   regexp.MustCompile(`^\d+$`),
		NumericOrTime: regexp.MustCompile(`^\d+(?:\s*:\s*\d+)*$`),
		LongDigitRun:  regexp.MustCompile(`^\d{6,}$`),
	}
}

// IsAddress reports whether an upper-cased line carries an address indicator.
func (p *Patterns) IsAddress(upper string) bool {
	return p.addressIndex(upper) >= 0
}

// addressIndex returns the byte offset of the earliest address keyword, or -1.
func (p *Patterns) addressIndex(upper string) int {
	first := -1
	for _, re := range p.Addresses {
		if m := re.FindStringSubmatchIndex(upper); m != nil && (first < 0 || m[2] < first) {
			first = m[2]
		}
	}
	return first
}
