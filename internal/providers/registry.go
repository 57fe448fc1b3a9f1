// Package providers is the static catalog of git-hosting providers the
// analyzer can sign in against and clone from. The catalog is immutable
// after Load; runtime flags (enabled, configured) are derived from config
// at load time and an optional providers.yaml overlay.
package providers

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/config"
	"go.yaml.in/yaml/v3"
)

// ErrProviderNotFound is returned for provider names not in the catalog.
var ErrProviderNotFound = errors.New("provider not found")

// AuthStyle describes how a provider authenticates users.
type AuthStyle string

const (
	// AuthOAuth providers run the authorization-code flow.
	AuthOAuth AuthStyle = "oauth"
	// AuthToken providers only accept personal access tokens.
	AuthToken AuthStyle = "token"
)

// Provider is one catalog entry with its resolved runtime flags.
type Provider struct {
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Host        string    `json:"host"`
	AuthStyle   AuthStyle `json:"auth_style"`

	// OAuth endpoints; empty for AuthToken providers.
	AuthURL  string `json:"-"`
	TokenURL string `json:"-"`
	Scopes   []string `json:"-"`

	// IdentityURL is the REST endpoint returning the authenticated user.
	IdentityURL string `json:"-"`

	// Enabled is the feature flag; Configured means required secrets are
	// present. Sign-in requires both.
	Enabled    bool `json:"enabled"`
	Configured bool `json:"configured"`

	// extraHosts are additional hosts that map to this provider when
	// matching clone URLs (e.g. visualstudio.com for azure).
	extraHosts []string
}

// Usable reports whether the provider can accept sign-in and clone requests.
func (p *Provider) Usable() bool {
	return p.Enabled && p.Configured
}

// catalogOverlay is the shape of the optional providers.yaml file.
// It can disable entries or point them at self-managed hosts.
type catalogOverlay struct {
	Providers []struct {
		Name    string `yaml:"name"`
		Enabled *bool  `yaml:"enabled"`
		Host    string `yaml:"host"`
	} `yaml:"providers"`
}

// Registry answers provider lookups for the auth coordinator, the ingestor
// and the admin endpoint. Read-only at request time.
type Registry struct {
	order   []string
	entries map[string]*Provider
}

// defaults returns the built-in catalog in presentation order.
func defaults() []*Provider {
	return []*Provider{
		{
			Name: "github", DisplayName: "GitHub", Host: "github.com", AuthStyle: AuthOAuth,
			AuthURL:     "https://github.com/login/oauth/authorize",
			TokenURL:    "https://github.com/login/oauth/access_token",
			Scopes:      []string{"read:user", "repo"},
			IdentityURL: "https://api.github.com/user",
		},
		{
			Name: "gitlab", DisplayName: "GitLab", Host: "gitlab.com", AuthStyle: AuthOAuth,
			AuthURL:     "https://gitlab.com/oauth/authorize",
			TokenURL:    "https://gitlab.com/oauth/token",
			Scopes:      []string{"read_user", "read_repository"},
			IdentityURL: "https://gitlab.com/api/v4/user",
		},
		{
			Name: "bitbucket", DisplayName: "Bitbucket", Host: "bitbucket.org", AuthStyle: AuthOAuth,
			AuthURL:     "https://bitbucket.org/site/oauth2/authorize",
			TokenURL:    "https://bitbucket.org/site/oauth2/access_token",
			Scopes:      []string{"account", "repository"},
			IdentityURL: "https://api.bitbucket.org/2.0/user",
		},
		{
			Name: "azure", DisplayName: "Azure DevOps", Host: "dev.azure.com", AuthStyle: AuthToken,
			IdentityURL: "https://app.vssps.visualstudio.com/_apis/profile/profiles/me?api-version=7.1",
			extraHosts:  []string{"visualstudio.com"},
		},
		{
			Name: "gitea", DisplayName: "Gitea", Host: "gitea.com", AuthStyle: AuthOAuth,
			AuthURL:     "https://gitea.com/login/oauth/authorize",
			TokenURL:    "https://gitea.com/login/oauth/access_token",
			Scopes:      []string{"read:user", "read:repository"},
			IdentityURL: "https://gitea.com/api/v1/user",
		},
		{
			Name: "codeberg", DisplayName: "Codeberg", Host: "codeberg.org", AuthStyle: AuthOAuth,
			AuthURL:     "https://codeberg.org/login/oauth/authorize",
			TokenURL:    "https://codeberg.org/login/oauth/access_token",
			Scopes:      []string{"read:user", "read:repository"},
			IdentityURL: "https://codeberg.org/api/v1/user",
		},
		{
			Name: "sourcehut", DisplayName: "SourceHut", Host: "git.sr.ht", AuthStyle: AuthToken,
			IdentityURL: "https://meta.sr.ht/api/user/profile",
			extraHosts:  []string{"sr.ht"},
		},
	}
}

// Load builds the registry from the built-in catalog, per-provider config
// and an optional YAML overlay file.
func Load(cfgs map[string]config.ProviderConfig, overlayPath string) (*Registry, error) {
	r := &Registry{entries: make(map[string]*Provider)}

	for _, p := range defaults() {
		if pc, ok := cfgs[p.Name]; ok {
			p.Enabled = pc.Enabled
			if pc.Host != "" {
				p.Host = pc.Host
				rehost(p, pc.Host)
			}
			switch p.AuthStyle {
			case AuthToken:
				p.Configured = pc.Token != ""
			default:
				p.Configured = pc.ClientID != "" && pc.ClientSecret != ""
			}
		}
		r.order = append(r.order, p.Name)
		r.entries[p.Name] = p
	}

	if overlayPath != "" {
		if err := r.applyOverlay(overlayPath); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// applyOverlay merges a providers.yaml file into the catalog.
func (r *Registry) applyOverlay(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading provider overlay: %w", err)
	}

	var overlay catalogOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parsing provider overlay: %w", err)
	}

	for _, o := range overlay.Providers {
		p, ok := r.entries[o.Name]
		if !ok {
			return fmt.Errorf("provider overlay: %w: %q", ErrProviderNotFound, o.Name)
		}
		if o.Enabled != nil {
			p.Enabled = *o.Enabled
		}
		if o.Host != "" {
			p.Host = o.Host
			rehost(p, o.Host)
		}
	}
	return nil
}

// rehost rewrites endpoint URLs for a self-managed instance.
func rehost(p *Provider, host string) {
	swap := func(raw string) string {
		u, err := url.Parse(raw)
		if err != nil || raw == "" {
			return raw
		}
		u.Host = host
		return u.String()
	}
	p.AuthURL = swap(p.AuthURL)
	p.TokenURL = swap(p.TokenURL)
	switch p.Name {
	case "gitlab":
		p.IdentityURL = fmt.Sprintf("https://%s/api/v4/user", host)
	case "gitea", "codeberg":
		p.IdentityURL = fmt.Sprintf("https://%s/api/v1/user", host)
	}
}

// List returns the catalog in stable presentation order.
func (r *Registry) List() []*Provider {
	out := make([]*Provider, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name])
	}
	return out
}

// Get returns the named provider or ErrProviderNotFound.
func (r *Registry) Get(name string) (*Provider, error) {
	p, ok := r.entries[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
	}
	return p, nil
}

// IsUsable reports whether the named provider is enabled and configured.
// Unknown names are simply not usable, never a crash.
func (r *Registry) IsUsable(name string) bool {
	p, err := r.Get(name)
	return err == nil && p.Usable()
}

// MatchHost resolves a repository URL to the provider owning its host.
// Used by the ingestor to reject URL/provider mismatches.
func (r *Registry) MatchHost(rawURL string) (*Provider, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid repository URL: %w", err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return nil, fmt.Errorf("%w: URL %q has no host", ErrProviderNotFound, rawURL)
	}

	for _, name := range r.order {
		p := r.entries[name]
		if hostMatches(host, p.Host) {
			return p, nil
		}
		for _, extra := range p.extraHosts {
			if hostMatches(host, extra) {
				return p, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no provider for host %q", ErrProviderNotFound, host)
}

// hostMatches accepts the exact host and its subdomains.
func hostMatches(host, want string) bool {
	want = strings.ToLower(want)
	return host == want || strings.HasSuffix(host, "."+want)
}
