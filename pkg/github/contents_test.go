package github

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchFile(t *testing.T) {
	content := "version: \"3\"\nname: central\n"
	var gotPath, gotRef string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotRef = r.URL.Query().Get("ref")
		fmt.Fprintf(w, `{"type": "file", "encoding": "base64", "content": %q}`,
			base64.StdEncoding.EncodeToString([]byte(content)))
	}))

	data, err := client.FetchFile(context.Background(), "octo/policies", "main", "policy.yml")
	require.NoError(t, err)

	assert.Equal(t, content, string(data))
	assert.Equal(t, "/repos/octo/policies/contents/policy.yml", gotPath)
	assert.Equal(t, "main", gotRef)
}

func TestFetchFileRejectsDirectory(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"type": "dir"}`)
	}))

	_, err := client.FetchFile(context.Background(), "octo/policies", "", "policies")
	require.Error(t, err)
}

func TestFetchFileBadRepository(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	_, err := client.FetchFile(context.Background(), "nosep", "", "policy.yml")
	assert.ErrorIs(t, err, ErrInvalidRepository)
}
