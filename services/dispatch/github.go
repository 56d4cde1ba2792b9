package dispatch

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	apperr "imdiekejordan/auctionworker/pkg/errors"
)

// GitHubDispatcher triggers the scrape workflow through the GitHub Actions
// workflow-dispatch API.
type GitHubDispatcher struct {
	client   *resty.Client
	repo     string
	workflow string
	ref      string
}

type workflowRuns struct {
	WorkflowRuns []struct {
		ID int64 `json:"id"`
	} `json:"workflow_runs"`
}

// NewGitHubDispatcher creates a dispatcher for repo ("owner/name") and the
// named workflow file.
func NewGitHubDispatcher(token, repo, workflow string) *GitHubDispatcher {
	client := resty.New().
		SetBaseURL("https://api.github.com").
		SetAuthToken(token).
		SetHeader("Accept", "application/vnd.github.v3+json")

	return &GitHubDispatcher{
		client:   client,
		repo:     repo,
		workflow: workflow,
		ref:      "main",
	}
}

// IsRunInProgress reports whether the workflow has an in-progress run.
func (d *GitHubDispatcher) IsRunInProgress(ctx context.Context) (bool, error) {
	var runs workflowRuns
	resp, err := d.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"status":   "in_progress",
			"per_page": "1",
		}).
		SetResult(&runs).
		Get(fmt.Sprintf("/repos/%s/actions/workflows/%s/runs", d.repo, d.workflow))
	if err != nil {
		return false, apperr.NewDispatch("list workflow runs", err)
	}
	if resp.IsError() {
		return false, apperr.NewDispatch(
			fmt.Sprintf("list workflow runs: status %d", resp.StatusCode()), nil)
	}
	return len(runs.WorkflowRuns) > 0, nil
}

// TriggerRun dispatches the workflow. It refuses to trigger while a run is
// already in progress.
func (d *GitHubDispatcher) TriggerRun(ctx context.Context) error {
	inProgress, err := d.IsRunInProgress(ctx)
	if err != nil {
		return err
	}
	if inProgress {
		return apperr.NewDispatch("a scrape run is already in progress", nil)
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"ref": d.ref}).
		Post(fmt.Sprintf("/repos/%s/actions/workflows/%s/dispatches", d.repo, d.workflow))
	if err != nil {
		return apperr.NewDispatch("trigger workflow", err)
	}
	if resp.IsError() {
		return apperr.NewDispatch(
			fmt.Sprintf("trigger workflow: status %d: %s", resp.StatusCode(), resp.String()), nil)
	}
	return nil
}
