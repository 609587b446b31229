// Package prompts holds the text sent to model providers.
package prompts

import "fmt"

const ReportAnalyzer = `You are a medical-legal report analyzer. Extract and summarize all available information from the report, reading across sections. Mark information that is absent as "Not specified in the report" and keep the report's medical terminology.`

const reportSections = `Organize the summary under these headings:
1. Patient Demographics and Employment Details
2. Injury Claims (type, dates, body parts, mechanism, WPI % per body part)
3. Prior Relevant Injuries
4. Current Complaints by Body Part
5. Clinical Diagnoses
6. Apportionment Determinations
7. Work Restrictions and Limitations
8. Future Medical Care Recommendations
9. Vocational Findings and Recommendations
10. Unique or Notable Aspects`

// ReportSummary builds the single-prompt request used by the chat adapters.
func ReportSummary(message, context string) string {
	return fmt.Sprintf(`%s

%s

Use plain text headings without markdown.

Context:
%s

User Message:
%s`, ReportAnalyzer, reportSections, context, message)
}

const RatingExpert = `You are a California Workers' Compensation permanent disability rating expert. Using the PDRS 2005 edition, analyze medical reports and produce impairment ratings in the form
[Body Part]: [Apportionment]% - ([Code] - [WPI] - [1.4][Adjusted] - [Group] - [Standard] - [Final]%) [Clinical Description]
and show every combination as [First]% C [Second]% = [Result]%.`

// RatingContext builds the context message for reasoning models.
func RatingContext(context string) string {
	return fmt.Sprintf("%s\n\nReport context:\n%s", RatingExpert, context)
}

const AssistantInstructions = `Use the reference files attached to this thread through code_interpreter for occupation groups, occupational adjustments, age adjustments and impairment values. Show the calculation code you used.`

// MedicalReport builds the message that starts a rating analysis run.
func MedicalReport(text, occupation, age string) string {
	return fmt.Sprintf(`%s

Answer in these sections, each starting on a new paragraph with its title:
Medical Information:
Occupation Analysis:
Rating Calculations:
Final Rating:

Within each section write "key: value" lines, or one JSON object.

Medical Report Text:
%s

Additional Context:
Occupation: %s
Age: %s`, RatingExpert, text, occupation, age)
}

const PDRSystem = `You are a California workers' compensation rating assistant. Call exactly the function you are asked for and fill its arguments from the report.`

// PDRExtract is the first step of the function-calling analysis.
func PDRExtract(text, occupation, age string) string {
	return fmt.Sprintf("Extract the medical information from this report.\n\nOccupation: %s\nAge: %s\n\nReport:\n%s", occupation, age, text)
}

const (
	PDROccupation = "Determine the occupational group and variants for the extracted body parts."
	PDRRating     = "Calculate the rating for each impairment and combine them."
	PDRFormat     = "Format the final rating string."
)

const SystemPersona = `You are a helpful assistant for system operations. Break complex tasks into steps, explain each operation before describing it and keep answers concise.`

const ClonePersona = `You are a helpful assistant for file and document operations. Describe the file operations needed to satisfy the request and explain what each one does.`
