package gensvc

import "time"

// GenConfig holds configuration for the generation adapter.
type GenConfig struct {
	// TextBaseURL is the Pollinations text endpoint; the escaped prompt is appended as a path segment
	TextBaseURL string `env:"TEXT_BASE_URL" default:"https://text.pollinations.ai"`

	// ImageBaseURL is the Pollinations image endpoint used to build image URLs
	ImageBaseURL string `env:"IMAGE_BASE_URL" default:"https://image.pollinations.ai/prompt"`

	// TextTimeout bounds every text generation call
	TextTimeout time.Duration `env:"TEXT_TIMEOUT" default:"6s"`

	// TextMaxLength truncates generated text, in runes
	TextMaxLength int `env:"TEXT_MAX_LENGTH" default:"800"`

	ImageWidth  int `env:"IMAGE_WIDTH" default:"768"`
	ImageHeight int `env:"IMAGE_HEIGHT" default:"768"`

	// TemplatesFile optionally overrides the prompt templates (YAML)
	TemplatesFile string `env:"TEMPLATES_FILE" default:""`

	// GenAIAPIKey switches text generation to Google GenAI when set
	GenAIAPIKey string `env:"GENAI_API_KEY" default:""`
	GenAIModel  string `env:"GENAI_MODEL" default:"gemini-2.0-flash"`
	// GenAIBaseURL overrides the GenAI endpoint
	GenAIBaseURL string `env:"GENAI_BASE_URL" default:""`
}
