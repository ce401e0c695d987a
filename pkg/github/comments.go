package github

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// issueComment is the wire shape of an issue/PR comment.
type issueComment struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
}

// CommentService posts run summaries onto pull requests.
type CommentService struct {
	client *Client
}

// Comments returns the pull request comment service.
func (c *Client) Comments() *CommentService {
	return &CommentService{client: c}
}

// Upsert posts body as a comment on the pull request, replacing a
// previous comment that contains marker so reruns do not stack.
func (s *CommentService) Upsert(ctx context.Context, number int, marker, body string) error {
	path := s.client.repoPath(fmt.Sprintf("/issues/%d/comments", number))

	existing, err := listAll[issueComment](ctx, s.client, path, nil)
	if err != nil {
		return fmt.Errorf("listing comments: %w", err)
	}

	payload := map[string]string{"body": body}
	for _, comment := range existing {
		if marker != "" && strings.Contains(comment.Body, marker) {
			update := s.client.repoPath(fmt.Sprintf("/issues/comments/%d", comment.ID))
			return s.client.sendJSON(ctx, http.MethodPatch, update, payload, nil)
		}
	}
	return s.client.sendJSON(ctx, http.MethodPost, path, payload, nil)
}

// PullRequestNumber extracts the pull request number from an Actions
// ref such as refs/pull/123/merge. The second return is false for
// branch and tag refs.
func PullRequestNumber(ref string) (int, bool) {
	rest, ok := strings.CutPrefix(ref, "refs/pull/")
	if !ok {
		return 0, false
	}
	numStr, _, _ := strings.Cut(rest, "/")
	number, err := strconv.Atoi(numStr)
	if err != nil || number <= 0 {
		return 0, false
	}
	return number, true
}
