package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"imdiekejordan/auctionworker/internal/scraper"
	apperr "imdiekejordan/auctionworker/pkg/errors"
)

const defaultDataPath = "data.json"

// GitHubStore persists the dataset as a JSON blob in a GitHub repository via
// the contents API. Writes merge by URL: an incoming item replaces any
// persisted item with the same URL, everything else is preserved.
type GitHubStore struct {
	client *resty.Client
	repo   string
	path   string
}

// contentsFile is the subset of the contents API response the store needs.
type contentsFile struct {
	SHA     string `json:"sha"`
	Content string `json:"content"`
}

// NewGitHubStore creates a store committing to repo ("owner/name").
func NewGitHubStore(token, repo string) *GitHubStore {
	client := resty.New().
		SetBaseURL("https://api.github.com").
		SetAuthToken(token).
		SetHeader("Accept", "application/vnd.github.v3+json")

	return &GitHubStore{
		client: client,
		repo:   repo,
		path:   defaultDataPath,
	}
}

// Get loads the persisted dataset. A missing file is (nil, nil).
func (s *GitHubStore) Get(ctx context.Context) (*scraper.Dataset, error) {
	dataset, _, err := s.fetch(ctx)
	return dataset, err
}

// Put merges the dataset into the persisted one and commits the result.
func (s *GitHubStore) Put(ctx context.Context, dataset *scraper.Dataset) error {
	current, sha, err := s.fetch(ctx)
	if err != nil {
		return err
	}

	merged := mergeByURL(current, dataset)
	body, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return apperr.NewPersistence("encode dataset", err)
	}

	payload := map[string]any{
		"message": "Update auction data",
		"content": base64.StdEncoding.EncodeToString(body),
	}
	if sha != "" {
		payload["sha"] = sha
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(payload).
		Put(s.contentsURL())
	if err != nil {
		return apperr.NewPersistence("commit dataset", err)
	}
	if resp.IsError() {
		return apperr.NewPersistence(
			fmt.Sprintf("commit dataset: status %d: %s", resp.StatusCode(), resp.String()), nil)
	}
	return nil
}

func (s *GitHubStore) contentsURL() string {
	return fmt.Sprintf("/repos/%s/contents/%s", s.repo, s.path)
}

// fetch returns the persisted dataset and its blob sha, both zero when the
// file does not exist yet.
func (s *GitHubStore) fetch(ctx context.Context) (*scraper.Dataset, string, error) {
	var file contentsFile
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&file).
		Get(s.contentsURL())
	if err != nil {
		return nil, "", apperr.NewPersistence("read dataset", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, "", nil
	}
	if resp.IsError() {
		return nil, "", apperr.NewPersistence(
			fmt.Sprintf("read dataset: status %d", resp.StatusCode()), nil)
	}

	// The contents API wraps base64 at 60 columns.
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
	if err != nil {
		return nil, "", apperr.NewPersistence("decode dataset blob", err)
	}

	var dataset scraper.Dataset
	if err := json.Unmarshal(raw, &dataset); err != nil {
		return nil, "", apperr.NewPersistence("decode dataset", err)
	}
	return &dataset, file.SHA, nil
}

// mergeByURL replaces persisted entries whose URL matches an incoming item
// and preserves the rest.
func mergeByURL(current, incoming *scraper.Dataset) *scraper.Dataset {
	merged := &scraper.Dataset{LastUpdated: incoming.LastUpdated}

	updated := make(map[string]bool, len(incoming.Items))
	for _, item := range incoming.Items {
		updated[item.URL] = true
	}

	if current != nil {
		for _, item := range current.Items {
			if !updated[item.URL] {
				merged.Items = append(merged.Items, item)
			}
		}
	}
	merged.Items = append(merged.Items, incoming.Items...)
	return merged
}
