// Package prompt carries the system prompts the agents send to the model,
// embedded at build time.
package prompt

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

// ConversionPromptEnv names the environment variable that overrides the
// embedded narrative-to-script conversion prompt with a file path.
const ConversionPromptEnv = "LUDOS_CONVERSION_PROMPT"

// SceneAnnouncementParams fills the moderator's scene broadcast prompt.
type SceneAnnouncementParams struct {
	ObjectiveFacts       string
	PreviousRoundSummary string
	EnvironmentalEvents  string
}

// SceneAnnouncement renders the scene broadcast prompt.
func SceneAnnouncement(p SceneAnnouncementParams) (string, error) {
	return render("scene_announcement.tmpl", p)
}

// TurnOrderParams fills the moderator's turn-order prompt.
type TurnOrderParams struct {
	SceneDescription string
	ActiveCharacters string
	PreviousActions  string
}

// TurnOrder renders the turn-order prompt.
func TurnOrder(p TurnOrderParams) (string, error) {
	return render("turn_order.tmpl", p)
}

// RoundAssessmentParams fills the moderator's end-of-round assessment
// prompt.
type RoundAssessmentParams struct {
	RoundActions    string
	CharacterGoals  string
	CurrentRound    int
	MaxRounds       int
	EndingDirection string
}

// RoundAssessment renders the round assessment prompt.
func RoundAssessment(p RoundAssessmentParams) (string, error) {
	return render("round_assessment.tmpl", p)
}

// CharacterDecisionParams fills a character's decision prompt. All fields
// are pre-rendered text sections.
type CharacterDecisionParams struct {
	CharacterName       string
	PressureWarning     string
	VisibleActions      string
	SceneDescription    string
	LastThoughtsSection string
	GoalsList           string
}

// CharacterDecision renders a character's decision prompt.
func CharacterDecision(p CharacterDecisionParams) (string, error) {
	return render("character_decision.tmpl", p)
}

// PolisherParams fills the narrative polisher prompt.
type PolisherParams struct {
	RawLog            string
	CharacterDossiers string
	SceneInfo         string
}

// Polisher renders the narrative polisher prompt.
func Polisher(p PolisherParams) (string, error) {
	return render("polisher_narrative.tmpl", p)
}

// Conversion returns the narrative-to-script conversion prompt: the file
// named by LUDOS_CONVERSION_PROMPT when set, the embedded default
// otherwise.
func Conversion() (string, error) {
	if path := os.Getenv(ConversionPromptEnv); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read conversion prompt: %w", err)
		}
		return string(data), nil
	}

	data, err := templatesFS.ReadFile("templates/conversion.tmpl")
	if err != nil {
		return "", fmt.Errorf("read embedded conversion prompt: %w", err)
	}
	return string(data), nil
}

func render(name string, data any) (string, error) {
	var buf strings.Builder
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
