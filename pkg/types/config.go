package types

import "time"

// Mode selects how document pages are sent to the model.
type Mode string

const (
	// ModeImage sends rendered page images. Each page is processed on its
	// own and pages may run in parallel.
	ModeImage Mode = "image"

	// ModeText sends the PDF text layer in batches, threading continuation
	// state from one batch's reply into the next batch's prompt.
	ModeText Mode = "text"
)

// Provider identifies the model API.
type Provider string

const (
	ProviderAzureOpenAI Provider = "azure-openai"
	ProviderAnthropic   Provider = "anthropic"
	ProviderGemini      Provider = "gemini"
)

// AIConfig holds settings for the model collaborator.
type AIConfig struct {
	// Provider selects the model API (default azure-openai).
	Provider Provider `json:"provider" yaml:"provider"`

	// Model is the model or deployment name.
	Model string `json:"model" yaml:"model"`

	// Endpoint is the API base URL. Required for azure-openai
	// (e.g. "https://my-resource.openai.azure.com").
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// APIVersion is the azure-openai api-version query parameter.
	APIVersion string `json:"api_version,omitempty" yaml:"api_version,omitempty"`

	// APIKey is the authentication key. Falls back to the provider's
	// secret file when empty.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BearerToken authenticates azure-openai with an Entra ID token instead
	// of an API key.
	BearerToken string `json:"bearer_token,omitempty" yaml:"bearer_token,omitempty"`

	// MaxTokens caps the reply length (default 16384).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// MaxRetries is the number of retries on rate limiting (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout is the per-request HTTP timeout (default 5m).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// RasterSource selects where page images come from.
type RasterSource string

const (
	// RasterContainer renders pages with poppler inside a container.
	RasterContainer RasterSource = "container"

	// RasterDir reads pre-rendered page images from a directory.
	RasterDir RasterSource = "dir"
)

// RasterConfig holds settings for page image rendering.
type RasterConfig struct {
	Source RasterSource `json:"source" yaml:"source"`

	// ImagesDir is the directory of page images when Source is "dir".
	ImagesDir string `json:"images_dir,omitempty" yaml:"images_dir,omitempty"`

	// Image is the container image providing pdftoppm (default pdftoppm:latest).
	Image string `json:"image" yaml:"image"`

	// DPI is the render resolution (default 144, twice the PDF point size).
	DPI int `json:"dpi" yaml:"dpi"`
}

// ConversionConfig holds settings for the conversion drivers.
type ConversionConfig struct {
	Mode Mode `json:"mode" yaml:"mode"`

	// BatchSize is the number of pages per model call (default 1).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// Concurrency bounds parallel page calls in image mode (default 4).
	// Text mode is always sequential.
	Concurrency int `json:"concurrency" yaml:"concurrency"`

	// OutDir receives <doc>.md and <doc>.toc.yaml.
	OutDir string `json:"out_dir" yaml:"out_dir"`

	// PromptsDir overrides the embedded prompt files when set.
	PromptsDir string `json:"prompts_dir,omitempty" yaml:"prompts_dir,omitempty"`

	// Force reconverts documents whose Markdown output already exists.
	Force bool `json:"force" yaml:"force"`

	Raster RasterConfig `json:"raster" yaml:"raster"`
}

// ArtifactConfig holds settings for intermediate artifact persistence.
type ArtifactConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Dir holds artifact files and the artifacts.db index.
	Dir string `json:"dir" yaml:"dir"`
}

// LoggingConfig holds diagnostic logger settings.
type LoggingConfig struct {
	// Level is trace, debug, info, warn, or error (default info).
	Level string `json:"level" yaml:"level"`

	// Format is json, console, or pretty (default console).
	Format string `json:"format" yaml:"format"`
}

// PipelineConfig groups all configuration sections.
type PipelineConfig struct {
	Conversion ConversionConfig `json:"convert" yaml:"convert"`
	AI         AIConfig         `json:"ai" yaml:"ai"`
	Artifacts  ArtifactConfig   `json:"artifacts" yaml:"artifacts"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
}

// Defaults used when a config value is unset.
const (
	DefaultMaxTokens   = 16384
	DefaultMaxRetries  = 5
	DefaultTimeout     = 5 * time.Minute
	DefaultBatchSize   = 1
	DefaultConcurrency = 4
	DefaultDPI         = 144
	DefaultRasterImage = "pdftoppm:latest"
)

// WithDefaults returns c with zero values replaced by defaults.
func (c PipelineConfig) WithDefaults() PipelineConfig {
	if c.Conversion.Mode == "" {
		c.Conversion.Mode = ModeImage
	}
	if c.Conversion.BatchSize <= 0 {
		c.Conversion.BatchSize = DefaultBatchSize
	}
	if c.Conversion.Concurrency <= 0 {
		c.Conversion.Concurrency = DefaultConcurrency
	}
	if c.Conversion.OutDir == "" {
		c.Conversion.OutDir = "output"
	}
	if c.Conversion.Raster.Source == "" {
		c.Conversion.Raster.Source = RasterContainer
	}
	if c.Conversion.Raster.Image == "" {
		c.Conversion.Raster.Image = DefaultRasterImage
	}
	if c.Conversion.Raster.DPI <= 0 {
		c.Conversion.Raster.DPI = DefaultDPI
	}
	if c.AI.Provider == "" {
		c.AI.Provider = ProviderAzureOpenAI
	}
	if c.AI.APIVersion == "" {
		c.AI.APIVersion = "2024-06-01"
	}
	if c.AI.MaxTokens <= 0 {
		c.AI.MaxTokens = DefaultMaxTokens
	}
	if c.AI.MaxRetries <= 0 {
		c.AI.MaxRetries = DefaultMaxRetries
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = DefaultTimeout
	}
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = "output/artifacts"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	return c
}
