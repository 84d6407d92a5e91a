package subscription

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ParsedChannel is one channel entry extracted from a playlist body.
type ParsedChannel struct {
	Name  string
	URL   string
	TvgID string
	Logo  string
	Group string
}

var extinfAttr = regexp.MustCompile(`([A-Za-z0-9-]+)="([^"]*)"`)

// groupCaser uppercases the first letter of each word without lowering the
// rest, so feed groups like "news" render as "News" and acronyms survive.
var groupCaser = cases.Title(language.Und, cases.NoLower)

// Parse extracts channels from a playlist body. Bodies starting with
// #EXTM3U are parsed as M3U; everything else is treated as the TXT
// "name,url" format with #genre# group markers. Entries without a URL are
// dropped.
func Parse(body string) []ParsedChannel {
	trimmed := strings.TrimLeft(body, "\uFEFF \t\r\n")
	if strings.HasPrefix(trimmed, "#EXTM3U") {
		return parseM3U(trimmed)
	}
	return parseTXT(trimmed)
}

func parseM3U(body string) []ParsedChannel {
	var channels []ParsedChannel
	var pending *ParsedChannel

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#EXTINF") {
			entry := parseExtinf(line)
			pending = &entry
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if pending == nil {
			continue
		}
		pending.URL = line
		if pending.Name == "" {
			pending.Name = line
		}
		channels = append(channels, *pending)
		pending = nil
	}
	return channels
}

func parseExtinf(line string) ParsedChannel {
	var entry ParsedChannel
	for _, match := range extinfAttr.FindAllStringSubmatch(line, -1) {
		switch strings.ToLower(match[1]) {
		case "tvg-id":
			entry.TvgID = match[2]
		case "tvg-logo":
			entry.Logo = match[2]
		case "group-title":
			entry.Group = match[2]
		case "tvg-name":
			if entry.Name == "" {
				entry.Name = match[2]
			}
		}
	}
	// The display name follows the last comma outside the attribute list.
	if idx := strings.LastIndex(line, ","); idx >= 0 {
		if name := strings.TrimSpace(line[idx+1:]); name != "" {
			entry.Name = name
		}
	}
	return entry
}

func parseTXT(body string) []ParsedChannel {
	var channels []ParsedChannel
	group := ""

	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, rest, ok := strings.Cut(line, ",")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		rest = strings.TrimSpace(rest)
		if rest == "#genre#" {
			group = groupCaser.String(name)
			continue
		}
		if name == "" || rest == "" {
			continue
		}
		channels = append(channels, ParsedChannel{
			Name:  name,
			URL:   rest,
			Group: group,
		})
	}
	return channels
}
