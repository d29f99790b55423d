package gensvc

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Templates are the prompts sent to the generation service. Placeholders are
// written {name}.
type Templates struct {
	// Image uses {name}, {type} and {heads}.
	Image string `yaml:"image"`
	// Description uses {name} and {type}.
	Description string `yaml:"description"`
	// HybridDescription uses {name}, {type}, {parent_1}, {description_1},
	// {parent_2} and {description_2}.
	HybridDescription string `yaml:"hybrid_description"`
	// Name uses {prompt}.
	Name string `yaml:"name"`
}

// DefaultTemplates returns the built-in prompts.
func DefaultTemplates() Templates {
	return Templates{
		Image: "Mythical creature: {name}, type: {type}, heads: {heads}. " +
			"Highly detailed, fantasy art, trending on artstation.",
		Description: "Write a short, vivid description (2-3 sentences) of a mythical creature " +
			"named {name}, of type {type}.",
		HybridDescription: "Write a short, vivid description (2-3 sentences) of {name}, a hybrid " +
			"mythical creature of type {type} born from the fusion of {parent_1} " +
			"(described as \"{description_1}\") and {parent_2} (described as \"{description_2}\").",
		Name: "Give a short name (1 to 3 words) for a mythological creature based on: {prompt}. " +
			"Answer with the name only.",
	}
}

// LoadTemplates reads a YAML file over the defaults. Keys that are missing or
// blank keep their default. An empty path returns the defaults.
func LoadTemplates(path string) (Templates, error) {
	tpl := DefaultTemplates()
	if path == "" {
		return tpl, nil
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		return Templates{}, fmt.Errorf("read templates: %w", err)
	}

	var override Templates
	if err := yaml.Unmarshal(buf, &override); err != nil {
		return Templates{}, fmt.Errorf("parse templates: %w", err)
	}

	for _, f := range []struct{ dst, src *string }{
		{&tpl.Image, &override.Image},
		{&tpl.Description, &override.Description},
		{&tpl.HybridDescription, &override.HybridDescription},
		{&tpl.Name, &override.Name},
	} {
		if v := strings.TrimSpace(*f.src); v != "" {
			*f.dst = v
		}
	}

	return tpl, nil
}

// render substitutes {key} placeholders in one pass.
func render(tpl string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", v)
	}

	return strings.NewReplacer(pairs...).Replace(tpl)
}
