// Package htmlclean strips page markup down to the parts worth saving.
package htmlclean

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var ErrNoBody = errors.New("no <body> in document")

type Config struct {
	TagsToRemove  []string
	AttrsToRemove []string
	// MaxOutputSize truncates the rendered result; zero disables truncation.
	MaxOutputSize int
	// KeepDataAttrs keeps data-* and aria-* attributes.
	KeepDataAttrs bool
}

func DefaultConfig() Config {
	return Config{
		TagsToRemove: []string{
			"script", "style", "noscript", "svg", "iframe",
			"link", "meta", "head", "title", "template",
		},
		AttrsToRemove: []string{
			"style", "srcset", "sizes", "loading", "decoding", "fetchpriority", "tabindex",
		},
		MaxOutputSize: 512 * 1024,
	}
}

const truncatedMarker = "\n<!-- truncated -->"

// Clean parses rawHTML and renders its <body> without comments, noisy tags,
// inline handlers and the attributes listed in cfg.
func Clean(rawHTML string, cfg Config) (string, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	body := findBody(doc)
	if body == nil {
		return "", ErrNoBody
	}

	cleanNode(body, cfg)

	var sb strings.Builder
	if err := html.Render(&sb, body); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}

	return truncate(sb.String(), cfg.MaxOutputSize), nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func cleanNode(n *html.Node, cfg Config) {
	if n.Type == html.CommentNode {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}
	if n.Type != html.ElementNode {
		return
	}

	if slices.Contains(cfg.TagsToRemove, n.Data) {
		if n.Parent != nil {
			n.Parent.RemoveChild(n)
		}
		return
	}

	n.Attr = slices.DeleteFunc(n.Attr, func(attr html.Attribute) bool {
		return dropAttr(attr.Key, cfg)
	})

	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		cleanNode(c, cfg)
		c = next
	}
}

func dropAttr(key string, cfg Config) bool {
	if slices.Contains(cfg.AttrsToRemove, key) {
		return true
	}
	if strings.HasPrefix(key, "on") {
		return true
	}
	if !cfg.KeepDataAttrs && (strings.HasPrefix(key, "data-") || strings.HasPrefix(key, "aria-")) {
		return true
	}
	return false
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max] + truncatedMarker
}
