package internal

import (
	"testing"

	"github.com/varga/larkpub/internal/lark"
)

func TestFeishuConfig_RequiresToken(t *testing.T) {
	cfg := FeishuConfig{BaseURL: lark.DefaultBaseURL, AccessToken: ""}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty access token should fail validation")
	}
}

func TestFeishuConfig_RequiresBaseURL(t *testing.T) {
	cfg := FeishuConfig{BaseURL: "", AccessToken: "tk"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty base url should fail validation")
	}
}

func TestConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Feishu.AccessToken = "tk"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config with token should pass: %v", err)
	}
}

func TestConfig_LedgerPathRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Feishu.AccessToken = "tk"
	cfg.Ledger.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty ledger path should fail validation")
	}
}

func TestNewDefaultConfig_TargetFromEnv(t *testing.T) {
	t.Setenv("FEISHU_DEFAULT_FOLDER_TOKEN", "fldenv")
	t.Setenv("FEISHU_DEFAULT_WIKI_SPACE_ID", "spenv")

	cfg := NewDefaultConfig()
	if cfg.Target.FolderToken != "fldenv" {
		t.Errorf("folder token = %q, want fldenv", cfg.Target.FolderToken)
	}
	if cfg.Target.WikiSpaceID != "spenv" {
		t.Errorf("wiki space = %q, want spenv", cfg.Target.WikiSpaceID)
	}
}
