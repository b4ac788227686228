package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

var (
	reSpaces   = regexp.MustCompile(`[ \t]+`)
	reNewlines = regexp.MustCompile(`\n{3,}`)
)

// noiseMarkers flag boilerplate lines dropped during cleaning.
var noiseMarkers = []string{
	"cookie policy",
	"privacy policy",
	"all rights reserved",
	"subscribe to our newsletter",
}

// ExtractFile reads one source file and returns its cleaned text. HTML is
// reduced to headings, paragraphs, list items, code and tables; everything
// else is read as plain text.
func ExtractFile(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	text := string(raw)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		text, err = HTMLToText(text)
		if err != nil {
			return "", fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return Clean(text), nil
}

// HTMLToText extracts readable content from HTML, keeping the heading
// structure as markdown-style prefixes.
func HTMLToText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}
	var out []string
	doc.Find("h1,h2,h3,h4,p,li,pre,code,table").Each(func(i int, s *goquery.Selection) {
		switch goquery.NodeName(s) {
		case "h1":
			out = append(out, "# "+strings.TrimSpace(s.Text()))
		case "h2":
			out = append(out, "## "+strings.TrimSpace(s.Text()))
		case "h3":
			out = append(out, "### "+strings.TrimSpace(s.Text()))
		case "h4":
			out = append(out, "#### "+strings.TrimSpace(s.Text()))
		case "p":
			out = append(out, strings.TrimSpace(s.Text()))
		case "li":
			out = append(out, "- "+strings.TrimSpace(s.Text()))
		case "pre", "code":
			out = append(out, "```\n"+strings.TrimSpace(s.Text())+"\n```")
		case "table":
			out = append(out, tableToText(s))
		}
	})
	return strings.Join(out, "\n\n"), nil
}

func tableToText(sel *goquery.Selection) string {
	var rows []string
	sel.Find("tr").Each(func(i int, tr *goquery.Selection) {
		var cols []string
		tr.Find("th,td").Each(func(j int, td *goquery.Selection) {
			cols = append(cols, strings.TrimSpace(td.Text()))
		})
		if len(cols) > 0 {
			rows = append(rows, "| "+strings.Join(cols, " | ")+" |")
		}
	})
	return strings.Join(rows, "\n")
}

// Clean normalizes extracted text: control characters and OCR ligatures are
// fixed, whitespace is collapsed, boilerplate lines and duplicated
// paragraphs are dropped.
func Clean(text string) string {
	if text == "" {
		return ""
	}

	cleaned := strings.Map(func(r rune) rune {
		if r == '\n' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, text)

	fixes := map[string]string{
		"ﬁ": "fi", "ﬂ": "fl",
		"—": "-", "–": "-",
		"·": ".", "•": "-",
	}
	for from, to := range fixes {
		cleaned = strings.ReplaceAll(cleaned, from, to)
	}

	cleaned = reSpaces.ReplaceAllString(cleaned, " ")
	cleaned = reNewlines.ReplaceAllString(cleaned, "\n\n")
	cleaned = dropNoiseLines(cleaned)
	return dedupeParagraphs(strings.TrimSpace(cleaned))
}

func dropNoiseLines(text string) string {
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		lower := strings.ToLower(line)
		noisy := false
		for _, marker := range noiseMarkers {
			if strings.Contains(lower, marker) {
				noisy = true
				break
			}
		}
		if !noisy {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func dedupeParagraphs(text string) string {
	parts := strings.Split(text, "\n\n")
	seen := make(map[string]struct{}, len(parts))
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return strings.Join(out, "\n\n")
}
