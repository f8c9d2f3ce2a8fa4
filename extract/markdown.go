package extract

import (
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	readability "github.com/go-shiori/go-readability"
)

// minContentLength is the minimum TextContent length (in characters) for
// readability output to be considered valid. Below this threshold we assume
// the algorithm failed to locate the main content and convert the full HTML.
const minContentLength = 50

// newMarkdownConverter creates a reusable, goroutine-safe Converter:
//
//   - base plugin: strips script, style, iframe, noscript, head, meta, link,
//     input, textarea and HTML comments.
//   - commonmark plugin: standard Markdown rendering (headings, lists, links,
//     code blocks, emphasis, blockquotes, etc.).
//   - table plugin: preserves table structure with minimal cell padding.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// Markdown renders the page's main content as Markdown.
//
// Stage 1 runs the Mozilla Readability algorithm to isolate the main content
// and strip nav/footer/sidebar noise. If readability fails or extracts too
// little, the full HTML is converted instead. Stage 2 converts the result
// with html-to-markdown; the source URL resolves relative links and image
// srcs so the output is self-contained.
func Markdown(rawHTML string, sourceURL string) (string, error) {
	content := rawHTML

	if parsedURL, err := nurl.Parse(sourceURL); err == nil {
		article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
		switch {
		case err != nil:
			slog.Warn("readability content extraction failed, converting full HTML",
				"url", sourceURL, "error", err,
			)
		case len(strings.TrimSpace(article.TextContent)) < minContentLength:
			slog.Warn("readability content too short, converting full HTML",
				"url", sourceURL, "length", len(article.TextContent),
			)
		default:
			content = article.Content
		}
	}

	return newMarkdownConverter().ConvertString(content, converter.WithDomain(sourceURL))
}
