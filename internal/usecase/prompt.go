package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"miro-gateway/internal/domain"
)

// Sampling parameters for feature generation.
const (
	samplingTemperature      = 0
	samplingMaxTokens        = 2000
	samplingTopP             = 1
	samplingFrequencyPenalty = 0
	samplingPresencePenalty  = 0
)

var htmlTag = regexp.MustCompile(`<[^>]*?>`)

// StripHTML removes anything between angle brackets, tags included.
func StripHTML(text string) string {
	return htmlTag.ReplaceAllString(text, "")
}

func buildFeatureMessages(epicDescription string, topN int) []domain.ChatMessage {
	return []domain.ChatMessage{
		{Role: domain.RoleSystem, Content: personaPrompt()},
		{Role: domain.RoleUser, Content: fmt.Sprintf(" Epic description : '%s'. ", epicDescription)},
		{Role: domain.RoleSystem, Content: featureInstructions(topN)},
	}
}

func buildCompletionRequest(model, epicDescription string, topN int) domain.CompletionRequest {
	return domain.CompletionRequest{
		Model:            model,
		Messages:         buildFeatureMessages(epicDescription, topN),
		Temperature:      samplingTemperature,
		MaxTokens:        samplingMaxTokens,
		TopP:             samplingTopP,
		FrequencyPenalty: samplingFrequencyPenalty,
		PresencePenalty:  samplingPresencePenalty,
	}
}

func personaPrompt() string {
	return "You are an industry leader expert product owner who can write features diligently based on the Epic description." +
		"You never make up any information that isn't there. "
}

func featureInstructions(topN int) string {
	return strings.Join([]string{
		fmt.Sprintf("Generate top %s Features which will satisfy the given Epic description strictly in a Syntactical correct JSONArray format.", countWord(topN)),
		"Review all generated features thoroughly and provide detailed hypothesis, acceptance criteria, leading indicators, non-functional requirements (NFRs),",
		"and objectives and key results (OKRs). Estimate 'Business Value', 'Time Criticality', and 'RR/OE' for each of the features in Fibonacci numbers,",
		"with at least one feature having a value '1' as Business Value. Provide detailed explaination reasoning for each of the estimations",
		"so that everyone can understand and agree. Generate output strictly in a Syntactical correct JSONArray format.",
		"## Sample JSONArray Ouput  as follows :",
		sampleOutput,
	}, "\n")
}

const sampleOutput = `{  "ArraySize": 2, 'Features': [{'feature': { 'Title': 'Sample Title', 'Hypothesis': 'Sample ', ` +
	`'Acceptance Criteria': '[Given] Sample [When] sample [Then] sample', 'Leading Indicators': 'Sample ', ` +
	`'Non-functional Requirements': 'Sample', 'Business Value': { 'value': 8, 'rationale': 'Sample' }, ` +
	`'Time Criticality': { 'value': 8, 'rationale': 'Sample.' }, 'RR/OE': { 'value': 3, 'rationale': 'Sample.' } } }, ` +
	`// Include similar structures for the remaining features...] }'`

var countWords = []string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten"}

func countWord(n int) string {
	if n >= 0 && n < len(countWords) {
		return countWords[n]
	}
	return fmt.Sprintf("%d", n)
}
