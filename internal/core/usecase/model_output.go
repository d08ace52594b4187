package usecase

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/trananhduc/event-assistant/internal/core/domain"
)

// actionBlockPattern matches the first [{...}] shaped substring,
// non-greedy, across newlines.
var actionBlockPattern = regexp.MustCompile(`(?s)\[\s*\{.*?\}\s*\]`)

// ParseModelOutput decides the tagged union once: either the raw reply is
// plain conversational text, or it embeds an action block whose remainder
// is the user-visible text. Malformed action JSON degrades to plain text
// with the block removed, never an error.
func ParseModelOutput(raw string) domain.ModelOutput {
	text := stripCodeFences(raw)

	loc := actionBlockPattern.FindStringIndex(text)
	if loc == nil {
		return domain.ModelOutput{Kind: domain.ModelOutputText, Text: strings.TrimSpace(text)}
	}

	block := text[loc[0]:loc[1]]
	remainder := strings.TrimSpace(text[:loc[0]] + " " + text[loc[1]:])

	var actions []domain.Action
	if err := json.Unmarshal([]byte(block), &actions); err != nil || len(actions) == 0 {
		return domain.ModelOutput{Kind: domain.ModelOutputText, Text: remainder}
	}
	return domain.ModelOutput{
		Kind:    domain.ModelOutputActions,
		Text:    remainder,
		Actions: actions,
	}
}

func stripCodeFences(raw string) string {
	out := strings.ReplaceAll(raw, "```json", "")
	out = strings.ReplaceAll(out, "```", "")
	return strings.TrimSpace(out)
}
