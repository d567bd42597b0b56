package internal

import (
	"log/slog"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/varga/larkpub/internal/lark"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app"`
	Feishu FeishuConfig      `yaml:"feishu"`
	Target TargetConfig      `yaml:"target"`
	Assets AssetsConfig      `yaml:"assets"`
	Ledger LedgerConfig      `yaml:"ledger"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Feishu.Validate(); err != nil {
		return err
	}
	return c.Ledger.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// FeishuConfig holds the API endpoint and credential.
//
// AccessToken is consumed as a bearer credential per call; acquiring and
// refreshing it happens outside this tool (pass a tenant access token
// obtained by whatever mechanism the deployment uses).
type FeishuConfig struct {
	BaseURL     string `yaml:"base_url"`
	AccessToken string `yaml:"access_token"`
}

// Validate validates the Feishu configuration.
func (c *FeishuConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.AccessToken, validation.Required),
	)
}

// TargetConfig holds default publish destinations. Each value can be
// overridden per invocation with command flags.
type TargetConfig struct {
	FolderToken   string `yaml:"folder_token"`
	WikiSpaceID   string `yaml:"wiki_space_id"`
	WikiNodeToken string `yaml:"wiki_node_token"`
}

// AssetsConfig holds the image download cache location. Empty means a
// directory under the system temp dir.
type AssetsConfig struct {
	CacheDir string `yaml:"cache_dir"`
}

// LedgerConfig holds the publication ledger database path.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the ledger configuration.
func (c *LedgerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// NewDefaultConfig returns a Config with sensible defaults. Credential and
// target defaults come from the FEISHU_* environment (a .env file is loaded
// by the command entry point).
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Feishu: FeishuConfig{
			BaseURL:     lark.DefaultBaseURL,
			AccessToken: os.Getenv("FEISHU_ACCESS_TOKEN"),
		},
		Target: TargetConfig{
			FolderToken:   os.Getenv("FEISHU_DEFAULT_FOLDER_TOKEN"),
			WikiSpaceID:   os.Getenv("FEISHU_DEFAULT_WIKI_SPACE_ID"),
			WikiNodeToken: os.Getenv("FEISHU_DEFAULT_WIKI_NODE_TOKEN"),
		},
		Ledger: LedgerConfig{
			Path: filepath.Join(".", "larkpub.db"),
		},
	}
}
