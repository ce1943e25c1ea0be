package crawler

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/nao1215/padwatch/internal/model"
	"gitlab.com/golang-commonmark/markdown"
	"golang.org/x/net/html"
)

// pads are CommonMark with raw HTML allowed, as rendered by HedgeDoc.
// Linkify stays off: bare text that merely looks like a URL is not a link.
var padMarkdown = markdown.New(
	markdown.HTML(true),
	markdown.Tables(true),
	markdown.Linkify(false),
	markdown.Typographer(false),
)

// ExtractLinks returns the absolute URL of every outbound hyperlink in the
// pad's content.
//
// Inline links, reference links and autolinks are found by parsing the
// content as CommonMark; anchors written as raw HTML inside the markdown are
// found by tokenizing that HTML. Every target is resolved against the pad's
// own URL and its fragment is removed. Targets with a scheme other than http
// or https (mailto:, javascript:, ...) are skipped.
//
// Order follows the document and duplicates are kept. A target that cannot
// be parsed as a URL fails the whole pad with an error wrapping ErrExtraction.
func ExtractLinks(pad *model.Pad) ([]string, error) {
	base, err := url.Parse(pad.Link.URL())
	if err != nil {
		return nil, fmt.Errorf("%w: invalid pad URL %q: %w", ErrExtraction, pad.Link.URL(), err)
	}

	var hrefs []string
	collectHrefs(padMarkdown.Parse([]byte(pad.Content)), &hrefs)

	links := make([]string, 0, len(hrefs))
	for _, href := range hrefs {
		resolved, ok, err := resolveURL(base, href)
		if err != nil {
			return nil, err
		}
		if ok {
			links = append(links, resolved)
		}
	}
	return links, nil
}

// collectHrefs walks block and inline tokens and appends every link target.
func collectHrefs(tokens []markdown.Token, hrefs *[]string) {
	for _, tok := range tokens {
		switch t := tok.(type) {
		case *markdown.Inline:
			collectHrefs(t.Children, hrefs)
		case *markdown.LinkOpen:
			*hrefs = append(*hrefs, t.Href)
		case *markdown.HTMLInline:
			*hrefs = append(*hrefs, anchorHrefs(strings.NewReader(t.Content))...)
		case *markdown.HTMLBlock:
			*hrefs = append(*hrefs, anchorHrefs(strings.NewReader(t.Content))...)
		}
	}
}

// anchorHrefs returns the href attribute of every <a> start tag in the HTML
// fragment. The tokenizer is used instead of html.Parse because inline HTML
// arrives as isolated tags such as a lone `<a href="...">`.
func anchorHrefs(r io.Reader) []string {
	var hrefs []string
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			return hrefs
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.Data != "a" {
				continue
			}
			if href := getAttr(tok.Attr, "href"); href != "" {
				hrefs = append(hrefs, href)
			}
		}
	}
}

// resolveURL resolves href against base, strips the fragment and puts the
// host in canonical form.
// The boolean is false when href is empty, a bare fragment, or resolves to
// a non-http(s) URL.
func resolveURL(base *url.URL, href string) (string, bool, error) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false, nil
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", false, fmt.Errorf("%w: %q: %w", ErrExtraction, href, err)
	}

	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false, nil
	}
	resolved.Fragment = ""
	resolved.RawFragment = ""
	resolved.Host = canonicalHost(resolved)
	return resolved.String(), true, nil
}

// defaultPorts maps each followed scheme to the port it implies.
var defaultPorts = map[string]string{
	"http":  "80",
	"https": "443",
}

// canonicalHost lowercases the host of u and drops a port that merely
// repeats the scheme's default, so links match configured servers.
func canonicalHost(u *url.URL) string {
	host := strings.ToLower(u.Host)
	if port := u.Port(); port != "" && port == defaultPorts[u.Scheme] {
		host = strings.TrimSuffix(host, ":"+port)
	}
	return host
}

// getAttr retrieves an attribute value from a tag's attributes.
func getAttr(attrs []html.Attribute, key string) string {
	for _, attr := range attrs {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
