package webarchive

import (
	"strings"

	"golang.org/x/net/html"
)

// Metadata is the page-level metadata extracted during capture, per
// spec.md §4.L: title, author, date, publisher, and the raw og/twitter/
// schema.org tag sets a caller may want to inspect directly.
type Metadata struct {
	Title     string            `json:"title,omitempty"`
	Author    string            `json:"author,omitempty"`
	Date      string            `json:"date,omitempty"`
	Publisher string            `json:"publisher,omitempty"`
	OpenGraph map[string]string `json:"og,omitempty"`
	Twitter   map[string]string `json:"twitter,omitempty"`
	SchemaOrg map[string]string `json:"schema_org,omitempty"`
	Links     []string          `json:"links,omitempty"`
}

// ExtractMetadata walks a parsed HTML document collecting <title>,
// <meta property="og:*">, <meta name="twitter:*">, <meta itemprop="...">
// (schema.org microdata), and <a href> link targets.
func ExtractMetadata(doc *html.Node) Metadata {
	md := Metadata{
		OpenGraph: map[string]string{},
		Twitter:   map[string]string{},
		SchemaOrg: map[string]string{},
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil {
					md.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				collectMeta(n, &md)
			case "a":
				if href := attr(n, "href"); href != "" {
					md.Links = append(md.Links, href)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if v, ok := md.OpenGraph["title"]; ok && md.Title == "" {
		md.Title = v
	}
	if v, ok := md.OpenGraph["site_name"]; ok {
		md.Publisher = v
	}

	return md
}

func collectMeta(n *html.Node, md *Metadata) {
	property := attr(n, "property")
	name := attr(n, "name")
	itemprop := attr(n, "itemprop")
	content := attr(n, "content")
	if content == "" {
		return
	}

	switch {
	case strings.HasPrefix(property, "og:"):
		md.OpenGraph[strings.TrimPrefix(property, "og:")] = content
	case strings.HasPrefix(name, "twitter:"):
		md.Twitter[strings.TrimPrefix(name, "twitter:")] = content
	case itemprop != "":
		md.SchemaOrg[itemprop] = content
	case name == "author":
		md.Author = content
	case name == "date" || property == "article:published_time":
		md.Date = content
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// ExtractText walks the document collecting visible text node content,
// for the FTS5 extracted_text column. <script> and <style> subtrees are
// skipped.
func ExtractText(doc *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				sb.WriteString(text)
				sb.WriteString(" ")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.TrimSpace(sb.String())
}
