package ai

import (
	"bytes"
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

const (
	PromptWorkoutPlan         = "workout_plan"
	PromptExerciseDescription = "exercise_description"
	PromptPerformanceAnalysis = "performance_analysis"
)

//go:embed prompts.yaml
var defaultPrompts []byte

type promptDefinition struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

type compiledPrompt struct {
	system *template.Template
	user   *template.Template
}

// Catalogue holds the parsed system/user templates keyed by prompt name.
type Catalogue struct {
	prompts map[string]compiledPrompt
}

type WorkoutPlanPrompt struct {
	DurationHint   string
	Goal           string
	Level          string
	DaysPerWeek    int
	SessionMinutes int
	Equipment      []string
	Profile        *AthleteFacts
}

type AthleteFacts struct {
	Gender   string
	Age      int
	HeightCM float64
	Goals    []string
}

type ExercisePrompt struct {
	Exercise string
	Level    string
}

type PerformancePrompt struct {
	Name    string
	Entries int
	Changes []MetricFact
	Plan    *PlanFact
}

type MetricFact struct {
	Metric string
	First  float64
	Latest float64
	Delta  float64
}

type PlanFact struct {
	Title     string
	Completed int
	Total     int
	Percent   int
}

var templateFuncs = template.FuncMap{
	"join": strings.Join,
}

func DefaultCatalogue() (*Catalogue, error) {
	return ParseCatalogue(defaultPrompts)
}

func ParseCatalogue(data []byte) (*Catalogue, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("ai: prompt catalogue is empty")
	}
	var definitions map[string]promptDefinition
	if err := yaml.Unmarshal(data, &definitions); err != nil {
		return nil, fmt.Errorf("ai: decode prompt catalogue: %w", err)
	}

	names := make([]string, 0, len(definitions))
	for name := range definitions {
		names = append(names, name)
	}
	sort.Strings(names)

	catalogue := &Catalogue{prompts: make(map[string]compiledPrompt, len(definitions))}
	for _, name := range names {
		definition := definitions[name]
		if strings.TrimSpace(definition.User) == "" {
			return nil, fmt.Errorf("ai: prompt %q has no user template", name)
		}
		system, err := parsePromptTemplate(name+".system", definition.System)
		if err != nil {
			return nil, err
		}
		user, err := parsePromptTemplate(name+".user", definition.User)
		if err != nil {
			return nil, err
		}
		catalogue.prompts[name] = compiledPrompt{system: system, user: user}
	}
	return catalogue, nil
}

// Render executes both templates of the named prompt against data.
func (c *Catalogue) Render(name string, data any) (string, string, error) {
	prompt, ok := c.prompts[name]
	if !ok {
		return "", "", fmt.Errorf("ai: unknown prompt %q", name)
	}
	system, err := execute(prompt.system, data)
	if err != nil {
		return "", "", err
	}
	user, err := execute(prompt.user, data)
	if err != nil {
		return "", "", err
	}
	return system, user, nil
}

func (c *Catalogue) Has(name string) bool {
	_, ok := c.prompts[name]
	return ok
}

func parsePromptTemplate(name, text string) (*template.Template, error) {
	parsed, err := template.New(name).Funcs(templateFuncs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("ai: parse %s: %w", name, err)
	}
	return parsed, nil
}

func execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("ai: render %s: %w", tmpl.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}
