package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gogithub "github.com/google/go-github/v68/github"
	gitlab "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/oauth2"
)

const enrichTimeout = 15 * time.Second

// enrich fills in default branch, primary language and description from the
// hosting provider's API. Best effort: enrichment failures are logged and
// never affect the clone outcome.
func (ing *Ingestor) enrich(repoID, provider, owner, name, token string) {
	if owner == "" || name == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), enrichTimeout)
	defer cancel()

	var (
		meta repoMeta
		err  error
	)
	switch provider {
	case "github":
		meta, err = fetchGitHubMeta(ctx, owner, name, token)
	case "gitlab":
		host := ""
		if p, perr := ing.registry.Get(provider); perr == nil {
			host = p.Host
		}
		meta, err = fetchGitLabMeta(ctx, owner, name, token, host)
	default:
		return
	}
	if err != nil {
		slog.Debug("ingest: metadata enrichment skipped", "repo", repoID, "provider", provider, "error", err)
		return
	}

	update := struct {
		Language    string `db:"language"`
		Description string `db:"description"`
	}{meta.Language, meta.Description}
	if err := ing.db.Update(ctx, "repositories", &update, "id = ?", repoID); err != nil {
		slog.Warn("ingest: saving repository metadata failed", "repo", repoID, "error", err)
	}
}

type repoMeta struct {
	Language    string
	Description string
}

func fetchGitHubMeta(ctx context.Context, owner, name, token string) (repoMeta, error) {
	client := gogithub.NewClient(nil)
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = gogithub.NewClient(oauth2.NewClient(ctx, ts))
	}

	repo, _, err := client.Repositories.Get(ctx, owner, name)
	if err != nil {
		return repoMeta{}, fmt.Errorf("fetching github repository: %w", err)
	}
	return repoMeta{
		Language:    repo.GetLanguage(),
		Description: repo.GetDescription(),
	}, nil
}

func fetchGitLabMeta(ctx context.Context, owner, name, token, host string) (repoMeta, error) {
	opts := []gitlab.ClientOptionFunc{}
	if host != "" && host != "gitlab.com" {
		opts = append(opts, gitlab.WithBaseURL("https://"+host+"/api/v4"))
	}
	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return repoMeta{}, fmt.Errorf("creating gitlab client: %w", err)
	}

	project, _, err := client.Projects.GetProject(owner+"/"+name, nil, gitlab.WithContext(ctx))
	if err != nil {
		return repoMeta{}, fmt.Errorf("fetching gitlab project: %w", err)
	}

	meta := repoMeta{Description: project.Description}
	langs, _, err := client.Projects.GetProjectLanguages(project.ID, gitlab.WithContext(ctx))
	if err == nil && langs != nil {
		best := float32(0)
		for lang, pct := range *langs {
			if pct > best {
				best = pct
				meta.Language = lang
			}
		}
	}
	return meta, nil
}
