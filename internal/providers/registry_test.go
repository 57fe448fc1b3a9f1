package providers

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/config"
)

func TestUsableRequiresEnabledAndConfigured(t *testing.T) {
	reg, err := Load(map[string]config.ProviderConfig{
		"github":    {Enabled: true, ClientID: "id", ClientSecret: "secret"},
		"gitlab":    {Enabled: true}, // enabled but no secrets
		"azure":     {Enabled: true, Token: "pat"},
		"sourcehut": {Enabled: false, Token: "pat"}, // configured but disabled
	}, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cases := []struct {
		name string
		want bool
	}{
		{"github", true},
		{"gitlab", false},
		{"azure", true},
		{"sourcehut", false},
		{"bitbucket", false},
		{"nonexistent", false},
	}
	for _, tc := range cases {
		if got := reg.IsUsable(tc.name); got != tc.want {
			t.Errorf("IsUsable(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestGetUnknownProvider(t *testing.T) {
	reg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := reg.Get("perforce"); !errors.Is(err, ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound, got %v", err)
	}
}

func TestMatchHost(t *testing.T) {
	reg, err := Load(nil, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	cases := []struct {
		url  string
		want string
	}{
		{"https://github.com/octo/repo.git", "github"},
		{"https://gitlab.com/group/project", "gitlab"},
		{"https://bitbucket.org/team/repo", "bitbucket"},
		{"https://dev.azure.com/org/project/_git/repo", "azure"},
		{"https://myorg.visualstudio.com/project/_git/repo", "azure"},
		{"https://git.sr.ht/~user/repo", "sourcehut"},
		{"https://codeberg.org/user/repo", "codeberg"},
	}
	for _, tc := range cases {
		p, err := reg.MatchHost(tc.url)
		if err != nil {
			t.Errorf("MatchHost(%q): %v", tc.url, err)
			continue
		}
		if p.Name != tc.want {
			t.Errorf("MatchHost(%q) = %s, want %s", tc.url, p.Name, tc.want)
		}
	}

	if _, err := reg.MatchHost("https://example.com/user/repo"); !errors.Is(err, ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound for unknown host, got %v", err)
	}
}

func TestOverlayDisablesAndRehosts(t *testing.T) {
	overlay := filepath.Join(t.TempDir(), "providers.yaml")
	content := `providers:
  - name: github
    enabled: false
  - name: gitlab
    host: gitlab.mycompany.com
`
	if err := os.WriteFile(overlay, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	reg, err := Load(map[string]config.ProviderConfig{
		"github": {Enabled: true, ClientID: "id", ClientSecret: "secret"},
		"gitlab": {Enabled: true, ClientID: "id", ClientSecret: "secret"},
	}, overlay)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if reg.IsUsable("github") {
		t.Error("github should be disabled by the overlay")
	}

	gl, err := reg.Get("gitlab")
	if err != nil {
		t.Fatal(err)
	}
	if gl.Host != "gitlab.mycompany.com" {
		t.Errorf("gitlab host = %s, want gitlab.mycompany.com", gl.Host)
	}
	if gl.IdentityURL != "https://gitlab.mycompany.com/api/v4/user" {
		t.Errorf("gitlab identity url not rehosted: %s", gl.IdentityURL)
	}

	if _, err := reg.MatchHost("https://gitlab.mycompany.com/group/project"); err != nil {
		t.Errorf("MatchHost against rehosted gitlab: %v", err)
	}
}

func TestOverlayUnknownProviderFails(t *testing.T) {
	overlay := filepath.Join(t.TempDir(), "providers.yaml")
	if err := os.WriteFile(overlay, []byte("providers:\n  - name: cvs\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(nil, overlay); !errors.Is(err, ErrProviderNotFound) {
		t.Fatalf("expected ErrProviderNotFound, got %v", err)
	}
}
