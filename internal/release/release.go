// Package release downloads memory images published as GitHub release assets
package release

import (
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/google/go-github/github"
)

// Ref names one asset of one release: owner/repo@tag/asset.
// An empty tag or "latest" selects the most recent release.
type Ref struct {
	Owner, Repo string
	Tag         string
	Asset       string
}

func (r Ref) String() string {
	tag := r.Tag
	if tag == "" {
		tag = "latest"
	}
	return fmt.Sprintf("%s/%s@%s/%s", r.Owner, r.Repo, tag, r.Asset)
}

// ParseRef parses owner/repo@tag/asset or owner/repo/asset
func ParseRef(s string) (Ref, error) {
	var r Ref
	repo, rest := s, ""
	if i := strings.Index(s, "@"); i >= 0 {
		repo, rest = s[:i], s[i+1:]
		j := strings.Index(rest, "/")
		if j < 0 {
			return Ref{}, fmt.Errorf("release: %q has no asset name", s)
		}
		r.Tag, r.Asset = rest[:j], rest[j+1:]
	} else {
		parts := strings.SplitN(s, "/", 3)
		if len(parts) != 3 {
			return Ref{}, fmt.Errorf("release: %q is not owner/repo/asset", s)
		}
		repo, r.Asset = parts[0]+"/"+parts[1], parts[2]
	}

	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Ref{}, fmt.Errorf("release: %q is not owner/repo", repo)
	}
	r.Owner, r.Repo = parts[0], parts[1]
	if r.Asset == "" {
		return Ref{}, fmt.Errorf("release: %q has no asset name", s)
	}
	if r.Tag == "latest" {
		r.Tag = ""
	}
	return r, nil
}

// ErrAssetNotFound is returned when the release has no asset with the requested name
var ErrAssetNotFound = errors.New("release: asset not found")

// Fetch downloads the asset named by ref
func Fetch(ctx context.Context, client *github.Client, ref Ref) ([]byte, error) {
	if client == nil {
		client = github.NewClient(nil)
	}

	var (
		rel *github.RepositoryRelease
		err error
	)
	// fetch tagged release from github
	// if no tag was specified then fetch the latest release
	if ref.Tag != "" {
		rel, _, err = client.Repositories.GetReleaseByTag(ctx, ref.Owner, ref.Repo, ref.Tag)
	} else {
		rel, _, err = client.Repositories.GetLatestRelease(ctx, ref.Owner, ref.Repo)
	}
	if err != nil {
		return nil, fmt.Errorf("release: unable to fetch %s: %v", ref, err)
	}

	for _, asset := range rel.Assets {
		if asset.GetName() != ref.Asset {
			continue
		}
		req, err := http.NewRequest(http.MethodGet, asset.GetBrowserDownloadURL(), nil)
		if err != nil {
			return nil, err
		}
		resp, err := http.DefaultClient.Do(req.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("release: download %s: %s", asset.GetName(), resp.Status)
		}
		return ioutil.ReadAll(resp.Body)
	}
	return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, ref)
}
