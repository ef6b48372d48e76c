package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipts-extractor/constants"
	"github.com/joseph-ayodele/receipts-extractor/internal/common"
)

type stubRunner struct {
	name   string
	args   []string
	stdout string
	err    error
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.name, s.args = name, args
	return []byte(s.stdout), []byte("boom"), s.err
}

type stubBackend struct {
	text  string
	err   error
	calls int
	lang  string
}

func (b *stubBackend) Text(_ context.Context, png []byte, lang string) (string, error) {
	b.calls++
	b.lang = lang
	if Sniff(png) != constants.FormatImage {
		return "", errors.New("backend expects png")
	}
	return b.text, b.err
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := imaging.New(w, h, color.White)
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func TestSniff(t *testing.T) {
	heic := append([]byte{0, 0, 0, 24}, []byte("ftypheic")...)
	assert.Equal(t, constants.FormatPDF, Sniff([]byte("%PDF-1.7\n")))
	assert.Equal(t, constants.FormatHEIC, Sniff(heic))
	assert.Equal(t, constants.FormatImage, Sniff([]byte{0xFF, 0xD8, 0xFF, 0xE0}))
	assert.Equal(t, constants.FormatImage, Sniff(testPNG(t, 2, 2)))
	assert.Equal(t, constants.FileFormat(""), Sniff([]byte("hello")))
}

func TestNormalize(t *testing.T) {
	in := "MİGROS\t A.Ş.\r\n\r\n\r\n-----\nTOPLAM   *47,50\x00 \n"
	assert.Equal(t, "MİGROS A.Ş.\n\nTOPLAM *47,50", Normalize(in))
	// decomposed İ composes to the precomposed rune
	assert.Equal(t, "\u0130", Normalize("I\u0307"))
	assert.Equal(t, []string{"a", "b"}, Lines("a\n\n  \nb\n"))
}

func TestHeuristicConfidence(t *testing.T) {
	low := HeuristicConfidence("hello")
	high := HeuristicConfidence("12.05.2024 TOPLAM 47,50 TL " + strings.Repeat("x", 120))
	assert.InDelta(t, 0.2, low, 0.001)
	assert.InDelta(t, 0.8, high, 0.001)
}

func TestTesseractCLI_Text(t *testing.T) {
	r := &stubRunner{stdout: "MİGROS\n-----\nTOPLAM 47,50\n"}
	cli := &TesseractCLI{Path: "/usr/bin/tesseract", PSM: 6, TessdataDir: "/td", Runner: r}

	got, err := cli.Text(context.Background(), testPNG(t, 2, 2), "tur+eng")
	require.NoError(t, err)
	assert.Equal(t, "MİGROS\n\nTOPLAM 47,50\n", got)
	assert.Equal(t, "/usr/bin/tesseract", r.name)
	assert.Equal(t, []string{"stdout", "-l", "tur+eng", "--psm", "6", "--tessdata-dir", "/td"}, r.args[1:])
}

func TestTesseractCLI_Error(t *testing.T) {
	cli := &TesseractCLI{Runner: &stubRunner{err: errors.New("exit status 1")}}
	_, err := cli.Text(context.Background(), testPNG(t, 2, 2), "tur")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestTesseractCLI_MeanConfidence(t *testing.T) {
	tsv := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
		"1\t1\t0\t0\t0\t0\t0\t0\t10\t10\t-1\t\n" +
		"5\t1\t1\t1\t1\t1\t0\t0\t10\t10\t90\tMİGROS\n" +
		"5\t1\t1\t1\t1\t2\t0\t0\t10\t10\t70\tA.Ş.\n"
	cli := &TesseractCLI{Runner: &stubRunner{stdout: tsv}}
	got, err := cli.MeanConfidence(context.Background(), testPNG(t, 2, 2), "tur")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, got, 0.0001)
}

func TestEngine_Recognize(t *testing.T) {
	b := &stubBackend{text: "ABC GIDA\t LTD. ŞTİ.\r\nTOPLAM 275,00\n"}
	e := NewEngine(Config{Preprocess: true, MinWidth: 40}, b, nil)

	got, err := e.Recognize(context.Background(), testPNG(t, 20, 30), "")
	require.NoError(t, err)
	assert.Equal(t, "ABC GIDA LTD. ŞTİ.\nTOPLAM 275,00", got)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, constants.DefaultLanguage, b.lang)
}

func TestEngine_LanguageOverride(t *testing.T) {
	b := &stubBackend{text: "x"}
	e := NewEngine(Config{Language: "tur"}, b, nil)
	_, err := e.Recognize(context.Background(), testPNG(t, 4, 4), "eng")
	require.NoError(t, err)
	assert.Equal(t, "eng", b.lang)
}

func TestEngine_Unsupported(t *testing.T) {
	e := NewEngine(Config{}, &stubBackend{}, nil)
	_, err := e.Recognize(context.Background(), []byte("not an image"), "")
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
}

func TestEngine_BackendError(t *testing.T) {
	e := NewEngine(Config{}, &stubBackend{err: errors.New("tesseract missing")}, nil)
	_, err := e.Recognize(context.Background(), testPNG(t, 4, 4), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tesseract missing")
}

func TestPreprocess_Upscales(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 20))
	out := Preprocess(img, 100)
	assert.Equal(t, 100, out.Bounds().Dx())
	assert.Equal(t, 200, out.Bounds().Dy())
}
