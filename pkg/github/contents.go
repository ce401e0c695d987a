package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// contentFile is the wire shape of a contents API response for a file.
type contentFile struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
}

// FetchFile downloads one file from another repository, used to pull a
// shared policy from a central policy repo. ref may be empty for the
// default branch.
func (c *Client) FetchFile(ctx context.Context, repository, ref, path string) ([]byte, error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRepository, repository)
	}

	params := url.Values{}
	if ref != "" {
		params.Set("ref", ref)
	}

	var file contentFile
	apiPath := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, strings.TrimPrefix(path, "/"))
	if err := c.getJSON(ctx, apiPath, params, &file); err != nil {
		return nil, err
	}
	if file.Type != "" && file.Type != "file" {
		return nil, fmt.Errorf("github api: %s is a %s, not a file", path, file.Type)
	}

	// The contents API answers base64 for files under 1MB.
	if file.Encoding == "base64" || file.Encoding == "" {
		decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(file.Content, "\n", ""))
		if err != nil {
			return nil, fmt.Errorf("github api: decoding %s: %w", path, err)
		}
		return decoded, nil
	}
	return []byte(file.Content), nil
}
