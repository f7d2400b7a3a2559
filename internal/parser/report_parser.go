package parser

import (
	"regexp"
	"strings"
)

// ParsedReport is a work report parsed from a single line
type ParsedReport struct {
	Description string
	Progress    string
	ChannelID   string
	Mentions    []string
	Errors      []string
}

var (
	progressRegex = regexp.MustCompile(`progress:(?:"([^"]*)"|(\S+))`)
	channelRegex  = regexp.MustCompile(`(?:^|\s)#([A-Za-z0-9._-]+)`)
	mentionRegex  = regexp.MustCompile(`(?:^|\s)@([A-Za-z0-9._-]+)`)
)

// ParseReport extracts report metadata from free text
// Syntax: "Finished the export job progress:\"80% done\" #reports @U123 @U456"
func ParseReport(input string) ParsedReport {
	result := ParsedReport{
		Mentions: []string{},
		Errors:   []string{},
	}

	// Extract progress (progress:"text" or progress:token)
	if matches := progressRegex.FindStringSubmatch(input); len(matches) == 3 {
		result.Progress = matches[1] + matches[2]
		// Remove from description
		input = progressRegex.ReplaceAllString(input, "")
	}

	// Extract channel (#channel), only the first one counts
	channelMatches := channelRegex.FindAllStringSubmatch(input, -1)
	if len(channelMatches) > 0 {
		result.ChannelID = channelMatches[0][1]
		if len(channelMatches) > 1 {
			result.Errors = append(result.Errors, "Only one report channel allowed, using #"+result.ChannelID)
		}
		input = channelRegex.ReplaceAllString(input, " ")
	}

	// Extract mentions (@user), duplicates dropped
	seen := make(map[string]bool)
	for _, match := range mentionRegex.FindAllStringSubmatch(input, -1) {
		id := match[1]
		if seen[id] {
			continue
		}
		seen[id] = true
		result.Mentions = append(result.Mentions, id)
	}
	input = mentionRegex.ReplaceAllString(input, " ")

	// Clean up the description (remove extra spaces)
	result.Description = strings.Join(strings.Fields(input), " ")

	return result
}
