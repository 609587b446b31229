// Package rating checks permanent-disability rating strings produced by a model.
package rating

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/xaenox/legal-assistant/internal/models"
)

// Tolerance is the allowed difference between a stated and a computed combination.
const Tolerance = 0.1

var requiredElements = []*regexp.Regexp{
	regexp.MustCompile(`\d{2}\.\d{2}\.\d{2}\.\d{2}`),
	regexp.MustCompile(`WPI`),
	regexp.MustCompile(`FEC`),
	regexp.MustCompile(`GroupVariant`),
	regexp.MustCompile(`Combined Rating \d+%`),
	regexp.MustCompile(`Total Weeks of PD \d+`),
	regexp.MustCompile(`Age on DOI`),
	regexp.MustCompile(`Average Weekly Earnings`),
	regexp.MustCompile(`PD Weekly Rate`),
	regexp.MustCompile(`Total PD Payout`),
	regexp.MustCompile(`FM:`),
}

var (
	combinationPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)%\s+C\s+(\d+(?:\.\d+)?)%\s+=\s+(\d+(?:\.\d+)?)%`)
	spinePattern       = regexp.MustCompile(`(?i)spine|cervical|thoracic|lumbar`)
	spineTablePattern  = regexp.MustCompile(`Table 15-7|Range of Motion|Spinal Disorder`)
	upperPattern       = regexp.MustCompile(`(?i)shoulder|elbow|wrist|hand|finger`)
	lowerPattern       = regexp.MustCompile(`(?i)hip|knee|ankle|foot|toe`)
	romPattern         = regexp.MustCompile(`(?i)ROM|range of motion`)
	addPattern         = regexp.MustCompile(`(?i)add|added|addition`)
)

// Combine applies the combined values formula a + b(1 - a/100), rounded to
// two decimals.
func Combine(a, b float64) float64 {
	return math.Round((a+b*(1-a/100))*100) / 100
}

// Validate checks that text contains every required rating element and that
// each "A% C B% = R%" step is arithmetically consistent.
func Validate(text string) models.Validation {
	var missing []string
	for _, re := range requiredElements {
		if !re.MatchString(text) {
			missing = append(missing, re.String())
		}
	}
	if len(missing) > 0 {
		return models.Validation{
			Missing: missing,
			Error:   "Missing required elements in response",
		}
	}

	steps := combinationPattern.FindAllStringSubmatch(text, -1)
	if len(steps) == 0 {
		return models.Validation{Error: "No combined ratings found or invalid format"}
	}

	for _, step := range steps {
		a, _ := strconv.ParseFloat(step[1], 64)
		b, _ := strconv.ParseFloat(step[2], 64)
		result, _ := strconv.ParseFloat(step[3], 64)

		expected := Combine(a, b)
		if math.Abs(result-expected) > Tolerance {
			return models.Validation{
				Error: fmt.Sprintf("Invalid combination calculation: %s%% C %s%% = %s%%. Expected %s%%",
					step[1], step[2], step[3], strconv.FormatFloat(expected, 'f', -1, 64)),
			}
		}
	}

	if spinePattern.MatchString(text) && !spineTablePattern.MatchString(text) {
		return models.Validation{
			Error: "Spine ratings must specify Table 15-7, Range of Motion, or Spinal Disorder",
		}
	}

	if upperPattern.MatchString(text) || lowerPattern.MatchString(text) {
		if romPattern.MatchString(text) && !addPattern.MatchString(text) {
			return models.Validation{
				Error: "Range of motion impairments for same joint should be added, not combined",
			}
		}
	}

	return models.Validation{Valid: true}
}
