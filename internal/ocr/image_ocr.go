package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// TesseractCLI recognizes PNG bytes by shelling out to the tesseract binary:
// tesseract <file> stdout -l <lang> [--psm N] [--tessdata-dir D].
type TesseractCLI struct {
	Path        string
	TessdataDir string
	PSM         int
	Runner      Runner
}

func (t *TesseractCLI) Text(ctx context.Context, png []byte, lang string) (string, error) {
	path, cleanup, err := writeTemp(png)
	if err != nil {
		return "", err
	}
	defer cleanup()

	out, errb, err := t.runner().Run(ctx, t.bin(), t.args(path, lang)...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 512))
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil
}

// MeanConfidence runs tesseract in TSV mode and returns the mean word
// confidence in 0..1.
func (t *TesseractCLI) MeanConfidence(ctx context.Context, png []byte, lang string) (float32, error) {
	path, cleanup, err := writeTemp(png)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	out, _, err := t.runner().Run(ctx, t.bin(), append(t.args(path, lang), "tsv")...)
	if err != nil {
		return 0, fmt.Errorf("tesseract tsv: %w", err)
	}
	var sum, n float64
	for i, ln := range strings.Split(string(out), "\n") {
		if i == 0 || ln == "" {
			continue
		} // header
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := cols[len(cols)-2]
		if confStr == "" || confStr == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil && v >= 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float32(sum / n / 100.0), nil
}

func (t *TesseractCLI) args(path, lang string) []string {
	args := []string{path, "stdout", "-l", lang}
	if t.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.PSM))
	}
	if t.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.TessdataDir)
	}
	return args
}

func (t *TesseractCLI) bin() string {
	if t.Path == "" {
		return "tesseract"
	}
	return t.Path
}

func (t *TesseractCLI) runner() Runner {
	if t.Runner == nil {
		return ExecRunner{}
	}
	return t.Runner
}

func writeTemp(png []byte) (string, func(), error) {
	dir, err := os.MkdirTemp("", "rx-ocr-*")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }
	path := filepath.Join(dir, "page.png")
	if err := os.WriteFile(path, png, 0o600); err != nil {
		cleanup()
		return "", nil, err
	}
	return path, cleanup, nil
}
