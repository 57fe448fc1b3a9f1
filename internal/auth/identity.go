package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AbhishekGupta-Landmark/RepoCloner-sub002/internal/providers"
)

// identityTimeout bounds the user-endpoint call after token exchange.
const identityTimeout = 15 * time.Second

// Identity is the provider's view of the authenticated user.
type Identity struct {
	ProviderUserID string
	Username       string
	Email          string
}

// fetchIdentity calls the provider's user endpoint with the access token and
// normalises the response. Each provider names its id/login fields
// differently; providerIdentity absorbs all of them.
func fetchIdentity(ctx context.Context, client *http.Client, p *providers.Provider, accessToken string) (*Identity, error) {
	ctx, cancel := context.WithTimeout(ctx, identityTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.IdentityURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building identity request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	switch p.Name {
	case "azure":
		// Azure DevOps PATs go over basic auth with an empty username.
		req.SetBasicAuth("", accessToken)
	default:
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s user endpoint: %w", p.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading %s user response: %w", p.Name, err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%s rejected the credential (status %d)", p.Name, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s user endpoint returned %d: %s", p.Name, resp.StatusCode, truncate(body, 200))
	}

	var raw providerIdentity
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing %s user response: %w", p.Name, err)
	}

	id := raw.normalise()
	if id.ProviderUserID == "" || id.Username == "" {
		return nil, fmt.Errorf("%s user response missing id or username", p.Name)
	}
	return id, nil
}

// providerIdentity covers the field spellings of all catalog providers:
// GitHub (id/login), GitLab (id/username), Bitbucket (uuid/username),
// Gitea/Codeberg (id/login), Azure DevOps (id/displayName/emailAddress),
// SourceHut (canonical_name/name).
type providerIdentity struct {
	ID            json.Number `json:"id"`
	UUID          string      `json:"uuid"`
	CanonicalName string      `json:"canonical_name"`
	Login         string      `json:"login"`
	Username      string      `json:"username"`
	Name          string      `json:"name"`
	DisplayName   string      `json:"displayName"`
	Email         string      `json:"email"`
	EmailAddress  string      `json:"emailAddress"`
}

func (r *providerIdentity) normalise() *Identity {
	id := &Identity{}

	switch {
	case r.ID.String() != "" && r.ID.String() != "0":
		id.ProviderUserID = r.ID.String()
	case r.UUID != "":
		id.ProviderUserID = r.UUID
	case r.CanonicalName != "":
		id.ProviderUserID = r.CanonicalName
	}

	for _, candidate := range []string{r.Login, r.Username, r.Name, r.DisplayName} {
		if candidate != "" {
			id.Username = candidate
			break
		}
	}
	if id.Email = r.Email; id.Email == "" {
		id.Email = r.EmailAddress
	}
	return id
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
