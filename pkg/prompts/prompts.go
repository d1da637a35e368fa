package prompts

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

const defaultPromptsPath = "prompts.yaml"

//go:embed defaults.yaml
var defaultPrompts []byte

type Prompts struct {
	System  SystemPrompts  `yaml:"system"`
	Outline OutlinePrompts `yaml:"outline"`
	Title   TitlePrompts   `yaml:"title"`
}

type SystemPrompts struct {
	Outline string `yaml:"outline"`
	Title   string `yaml:"title"`
}

type OutlinePrompts struct {
	Generate string `yaml:"generate"`
}

type TitlePrompts struct {
	Generate string `yaml:"generate"`
}

type OutlineParams struct {
	Topic      string
	SlideCount int
	Language   string
}

type TitleParams struct {
	Topic string
}

// Load reads prompts.yaml from the working directory, falling back to the
// embedded defaults when the file is absent.
func Load() (*Prompts, error) {
	if _, err := os.Stat(defaultPromptsPath); err == nil {
		return LoadFrom(defaultPromptsPath)
	}
	return parse(defaultPrompts)
}

func LoadFrom(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Prompts, error) {
	var p Prompts
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	return &p, nil
}

func (p *Prompts) RenderOutline(params OutlineParams) (string, error) {
	return render(p.Outline.Generate, params)
}

func (p *Prompts) RenderTitle(params TitleParams) (string, error) {
	return render(p.Title.Generate, params)
}

func render(text string, params any) (string, error) {
	tmpl, err := template.New("prompt").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", fmt.Errorf("failed to render prompt: %w", err)
	}
	return buf.String(), nil
}
