package ocr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/heic"

	"github.com/joseph-ayodele/receipts-extractor/constants"
)

var heicBrands = [][]byte{[]byte("heic"), []byte("heix"), []byte("heif"), []byte("mif1"), []byte("msf1")}

// Sniff classifies data by its magic bytes; "" means unknown.
func Sniff(data []byte) constants.FileFormat {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF")):
		return constants.FormatPDF
	case len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")):
		for _, b := range heicBrands {
			if bytes.Equal(data[8:12], b) {
				return constants.FormatHEIC
			}
		}
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}),
		bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return constants.FormatImage
	}
	return ""
}

// DecodeImage decodes JPEG, PNG or HEIC data, honoring EXIF orientation.
func DecodeImage(data []byte, format constants.FileFormat) (image.Image, error) {
	if format == constants.FormatHEIC {
		img, err := heic.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode heic: %w", err)
		}
		return img, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// Preprocess prepares a photo for OCR: grayscale, upscale narrow images,
// boost contrast and sharpen.
func Preprocess(img image.Image, minWidth int) image.Image {
	out := imaging.Grayscale(img)
	if w := out.Bounds().Dx(); w > 0 && w < minWidth {
		out = imaging.Resize(out, minWidth, 0, imaging.Lanczos)
	}
	out = imaging.AdjustContrast(out, 30)
	return imaging.Sharpen(out, 1.0)
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
