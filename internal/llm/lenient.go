package llm

import (
	"regexp"
	"strings"
)

var reFence = regexp.MustCompile("(?m)^[ \t]*```[a-zA-Z]*[ \t]*$")

// StripCodeFences removes markdown code-fence lines (```json, ```) that
// models wrap around JSON despite being told not to.
func StripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = reFence.ReplaceAllString(s, "")
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
