package assistant

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	"github.com/xaenox/legal-assistant/internal/models"
)

const (
	sectionMedical    = "Medical Information"
	sectionOccupation = "Occupation Analysis"
	sectionRating     = "Rating Calculations"
	sectionFinal      = "Final Rating"
)

var (
	embeddedObject = regexp.MustCompile(`\{[\s\S]*?\}`)
	wordSeparator  = regexp.MustCompile(`[^a-zA-Z0-9]+(.)`)
)

// ParseAnalysis turns the free text of a rating analysis into its four
// sections. Sections that are missing or unreadable keep their defaults.
func ParseAnalysis(text string) models.AnalysisResult {
	result := models.NewAnalysisResult()
	sections := splitSections(text)

	if s, ok := findSection(sections, sectionMedical); ok {
		info := ParseSection(s)
		merge(result.ExtractedInfo, info)
		if !truthy(info["body_parts"]) {
			result.ExtractedInfo["body_parts"] = []any{}
		}
	}
	if s, ok := findSection(sections, sectionOccupation); ok {
		merge(result.OccupationInfo, ParseSection(s))
	}
	if s, ok := findSection(sections, sectionRating); ok {
		merge(result.RatingInfo, ParseSection(s))
	}
	if s, ok := findSection(sections, sectionFinal); ok {
		merge(result.FormattedRating, ParseSection(s))
	}

	return result
}

// ParseSection reads one section. The first {...} span is decoded as JSON,
// repaired if needed; without one, "key: value" lines become camelCase keys
// and comma separated values become lists. Unreadable input yields an empty
// section.
func ParseSection(text string) models.Section {
	if match := embeddedObject.FindString(text); match != "" {
		return decodeObject(match)
	}

	section := models.Section{}
	for _, line := range strings.Split(text, "\n") {
		parts := strings.Split(line, ":")
		if len(parts) < 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}

		for i := range parts[1:] {
			parts[i+1] = strings.TrimSpace(parts[i+1])
		}
		value := strings.TrimSpace(strings.Join(parts[1:], ":"))

		if strings.Contains(value, ",") {
			items := strings.Split(value, ",")
			list := make([]any, len(items))
			for i, item := range items {
				list[i] = strings.TrimSpace(item)
			}
			section[camelCase(key)] = list
		} else {
			section[camelCase(key)] = value
		}
	}
	return section
}

// FormatSection writes a section as "key: value" lines, sorted by key.
// Lists are joined with ", ".
func FormatSection(section models.Section) string {
	keys := make([]string, 0, len(section))
	for k := range section {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		switch v := section[k].(type) {
		case []any:
			items := make([]string, len(v))
			for i, item := range v {
				items[i] = fmt.Sprint(item)
			}
			fmt.Fprintf(&b, "%s: %s\n", k, strings.Join(items, ", "))
		case []string:
			fmt.Fprintf(&b, "%s: %s\n", k, strings.Join(v, ", "))
		default:
			fmt.Fprintf(&b, "%s: %v\n", k, v)
		}
	}
	return b.String()
}

var echoMarkers = []string{
	"Please ensure your response includes all required elements in this exact format",
	`{"type":"object"`,
}

// CleanResponse drops instruction text that a model echoed back after its
// answer.
func CleanResponse(text string) string {
	for _, marker := range echoMarkers {
		if i := strings.Index(text, marker); i >= 0 {
			text = strings.TrimSpace(text[:i])
		}
	}
	return text
}

func decodeObject(raw string) models.Section {
	var section models.Section
	if err := json.Unmarshal([]byte(raw), &section); err == nil && section != nil {
		return section
	}

	repaired, err := jsonrepair.JSONRepair(raw)
	if err != nil {
		return models.Section{}
	}
	section = nil
	if err := json.Unmarshal([]byte(repaired), &section); err != nil || section == nil {
		return models.Section{}
	}
	return section
}

// splitSections splits before every blank line that is followed by a
// capital letter.
func splitSections(text string) []string {
	var sections []string
	start := 0
	for i := 0; i+2 < len(text); i++ {
		if text[i] == '\n' && text[i+1] == '\n' && text[i+2] >= 'A' && text[i+2] <= 'Z' {
			sections = append(sections, text[start:i])
			start = i + 2
			i++
		}
	}
	return append(sections, text[start:])
}

func findSection(sections []string, title string) (string, bool) {
	for _, s := range sections {
		if strings.Contains(s, title) {
			return s, true
		}
	}
	return "", false
}

func merge(dst, src models.Section) {
	for k, v := range src {
		dst[k] = v
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return x != ""
	case bool:
		return x
	case float64:
		return x != 0
	}
	return true
}

func camelCase(s string) string {
	s = strings.ToLower(s)
	s = wordSeparator.ReplaceAllStringFunc(s, func(m string) string {
		sub := wordSeparator.FindStringSubmatch(m)
		return strings.ToUpper(sub[1])
	})
	if s != "" && s[0] >= 'A' && s[0] <= 'Z' {
		s = strings.ToLower(s[:1]) + s[1:]
	}
	return s
}
