package constants

import "strings"

// FileFormat classifies an uploaded receipt file.
type FileFormat string

const (
	FormatImage FileFormat = "IMAGE"
	FormatHEIC  FileFormat = "HEIC"
	FormatPDF   FileFormat = "PDF"
)

// AllowedExtensions holds the accepted receipt file extensions.
var AllowedExtensions = map[string]FileFormat{
	"jpg":  FormatImage,
	"jpeg": FormatImage,
	"png":  FormatImage,
	"heic": FormatHEIC,
	"heif": FormatHEIC,
	"pdf":  FormatPDF,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// FormatForExt returns the format for an extension and whether it is accepted.
func FormatForExt(ext string) (FileFormat, bool) {
	f, ok := AllowedExtensions[NormalizeExt(ext)]
	return f, ok
}

// DefaultLanguage is the tesseract language hint used when none is given.
const DefaultLanguage = "tur+eng"
