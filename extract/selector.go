package extract

import (
	"bytes"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// ValidateSelector parses a CSS selector and reports whether it is valid.
// Used to fail fast on a bad --wait-selector or --css-selector before the
// browser is launched.
func ValidateSelector(selector string) error {
	_, err := cascadia.Parse(selector)
	return err
}

// ApplyCSSSelector filters rawHTML down to the concatenated outer HTML of
// every element matching the CSS selector and reports how many matched.
//
// Zero matches returns the input unchanged so downstream extraction still
// has a document to work with; the caller decides whether that is worth a
// warning.
func ApplyCSSSelector(rawHTML, selector string) (string, int, error) {
	sel, err := cascadia.Parse(selector)
	if err != nil {
		return "", 0, err
	}

	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", 0, err
	}

	var buf bytes.Buffer
	matched := 0
	for _, node := range cascadia.QueryAll(root, sel) {
		if err := html.Render(&buf, node); err != nil {
			return "", matched, err
		}
		matched++
	}
	if matched == 0 {
		return rawHTML, 0, nil
	}

	return buf.String(), matched, nil
}
