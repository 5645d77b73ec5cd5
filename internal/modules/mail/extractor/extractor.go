// Package extractor locates one-time passcodes in heterogeneous mail
// bodies. Extraction is a pure function over a message: an ordered list
// of strategies is tried and the first match wins, preferring the most
// semantically reliable source.
package extractor

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/dmarquezv/tempmail-otp-bot/internal/modules/mail/domain"
)

// codePattern is the passcode contract: a 4-8 digit run bounded by word
// boundaries, so it is never part of a longer digit run or glued to
// other word characters.
var codePattern = regexp.MustCompile(`\b(\d{4,8})\b`)

// paramKeys are query parameter names commonly carrying verification
// codes in mail hyperlinks, checked in this order.
var paramKeys = []string{"code", "otp", "token", "verify", "confirmation", "confirm"}

// Result is the outcome of an extraction attempt. Code is empty when no
// candidate was found. Detail carries the matched parameter or attribute
// name, or a diagnostic summary of the inputs when nothing matched.
type Result struct {
	Code   string
	Origin domain.Origin
	Detail string
}

// Found reports whether a passcode was extracted.
func (r Result) Found() bool {
	return r.Code != ""
}

// Extract runs the strategies over a message: plain text, HTML visible
// text, anchor targets, subject, element attributes, meta refresh.
func Extract(msg *domain.Message) Result {
	// 1. Plain-text body
	if msg.Text != "" {
		if code := findCode(msg.Text); code != "" {
			return Result{Code: code, Origin: domain.OriginText}
		}
	}

	var doc *goquery.Document
	if msg.HTML != "" {
		doc = parseHTML(msg.HTML)
	}

	if doc != nil {
		// 2. HTML stripped to visible text
		if code := findCode(VisibleText(doc)); code != "" {
			return Result{Code: code, Origin: domain.OriginHtmlText}
		}

		// 3. Anchor targets: query parameters first, then the raw href
		if res, ok := fromAnchors(doc); ok {
			return res
		}
	}

	// 4. Subject line
	if msg.Subject != "" {
		if code := findCode(msg.Subject); code != "" {
			return Result{Code: code, Origin: domain.OriginSubject}
		}
	}

	if doc != nil {
		// 5. Any element attribute value
		if res, ok := fromAttributes(doc); ok {
			return res
		}

		// 6. Meta refresh redirect target
		if res, ok := fromMetaRefresh(doc); ok {
			return res
		}
	}

	return Result{Origin: domain.OriginNone, Detail: diagnostics(msg, doc)}
}

func findCode(s string) string {
	if m := codePattern.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

// parseHTML returns nil when the body cannot be parsed at all; malformed
// markup otherwise degrades to whatever the tolerant parser recovers.
func parseHTML(raw string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil
	}
	return doc
}

// VisibleText flattens a document to its human-visible text, one text
// run per line. Script and style contents are not visible text.
func VisibleText(doc *goquery.Document) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}

func fromAnchors(doc *goquery.Document) (Result, bool) {
	var found Result
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if u, err := url.Parse(href); err == nil {
			q := u.Query()
			for _, key := range paramKeys {
				for _, val := range q[key] {
					if code := findCode(val); code != "" {
						found = Result{Code: code, Origin: domain.OriginHrefParam, Detail: key}
						return false
					}
				}
			}
		}
		// No tagged parameter: the link itself may embed the code
		if code := findCode(href); code != "" {
			found = Result{Code: code, Origin: domain.OriginHrefDigits}
			return false
		}
		return true
	})
	return found, found.Found()
}

func fromAttributes(doc *goquery.Document) (Result, bool) {
	var found Result
	doc.Find("*").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		for _, attr := range sel.Nodes[0].Attr {
			if code := findCode(attr.Val); code != "" {
				found = Result{Code: code, Origin: domain.OriginAttribute, Detail: attr.Key}
				return false
			}
		}
		return true
	})
	return found, found.Found()
}

func fromMetaRefresh(doc *goquery.Document) (Result, bool) {
	var found Result
	doc.Find("meta[http-equiv]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		content, _ := sel.Attr("content")
		if code := findCode(content); code != "" {
			found = Result{Code: code, Origin: domain.OriginMetaRefresh}
			return false
		}
		return true
	})
	return found, found.Found()
}

// diagnostics summarizes which inputs were present for a not-found
// result, so log readers can tell an empty message from a missed code.
func diagnostics(msg *domain.Message, doc *goquery.Document) string {
	var parts []string
	if msg.Text != "" {
		parts = append(parts, fmt.Sprintf("text_len=%d", len(msg.Text)))
	}
	if msg.HTML != "" {
		parts = append(parts, fmt.Sprintf("html_len=%d", len(msg.HTML)))
		if doc != nil {
			parts = append(parts, fmt.Sprintf("hrefs=%d", doc.Find("a[href]").Length()))
		}
	}
	if msg.Subject != "" {
		parts = append(parts, fmt.Sprintf("subject_len=%d", len(msg.Subject)))
	}
	return strings.Join(parts, "|")
}
