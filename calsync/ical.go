// Package calsync imports external iCal reservation feeds into room
// calendars, on demand or on a cron schedule.
package calsync

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Event is one VEVENT from an iCal feed.
type Event struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
}

// Parser parses iCal/ICS calendar feeds.
type Parser struct {
	httpClient *http.Client
}

func NewParser() *Parser {
	return &Parser{
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchAndParse downloads and parses an iCal feed from a URL.
func (p *Parser) FetchAndParse(url string) ([]Event, error) {
	resp, err := p.httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: feed returned status %d", ErrFetchFailed, resp.StatusCode)
	}

	events, err := p.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailed, err)
	}
	return events, nil
}

// Parse reads iCal data from a reader. Unknown properties are ignored;
// events missing either date are dropped.
func (p *Parser) Parse(r io.Reader) ([]Event, error) {
	var events []Event
	var current *Event
	var currentField string
	var folded strings.Builder

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()

		// folded continuation lines start with space or tab
		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			if currentField != "" {
				folded.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, " "), "\t"))
			}
			continue
		}

		if currentField != "" && current != nil {
			setEventField(current, currentField, folded.String())
		}
		currentField = ""
		folded.Reset()

		colonIdx := strings.Index(line, ":")
		if colonIdx == -1 {
			continue
		}

		field := line[:colonIdx]
		value := line[colonIdx+1:]

		// strip property parameters, e.g. DTSTART;VALUE=DATE:20231215
		if semicolonIdx := strings.Index(field, ";"); semicolonIdx != -1 {
			field = field[:semicolonIdx]
		}

		switch field {
		case "BEGIN":
			if value == "VEVENT" {
				current = &Event{}
			}
		case "END":
			if value == "VEVENT" && current != nil {
				if !current.Start.IsZero() && !current.End.IsZero() {
					events = append(events, *current)
				}
				current = nil
			}
		case "UID", "SUMMARY", "DTSTART", "DTEND":
			if current != nil {
				currentField = field
				folded.WriteString(value)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading feed: %w", err)
	}

	return events, nil
}

func setEventField(event *Event, field, value string) {
	value = strings.ReplaceAll(value, "\\n", "\n")
	value = strings.ReplaceAll(value, "\\,", ",")
	value = strings.ReplaceAll(value, "\\;", ";")
	value = strings.ReplaceAll(value, "\\\\", "\\")

	switch field {
	case "UID":
		event.UID = value
	case "SUMMARY":
		event.Summary = value
	case "DTSTART":
		event.Start = parseDateTime(value)
	case "DTEND":
		event.End = parseDateTime(value)
	}
}

func parseDateTime(value string) time.Time {
	formats := []string{
		"20060102T150405Z",
		"20060102T150405",
		"20060102",
		"2006-01-02T15:04:05Z",
		"2006-01-02",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
