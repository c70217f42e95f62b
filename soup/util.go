package soup

import (
	"regexp"
	"strings"

	"github.com/nw0220/Jumony/dom"
)

var duplicateWhitespace = regexp.MustCompile(`\s+(\n)\s*|\s*(\n)\s+|(\s)\s+`)

func TrimmedText(n dom.Node) string {
	return trimmed(n.Text())
}

func trimmed(s string) string {
	return duplicateWhitespace.ReplaceAllString(strings.TrimSpace(s), "$1$2$3")
}
