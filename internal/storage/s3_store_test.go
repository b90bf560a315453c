package storage

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newListingServer serves ListObjectsV2 for a fixed set of keys, filtered by
// the requested prefix, and counts every request it receives.
func newListingServer(t *testing.T, keys []string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Query().Get("list-type") != "2" {
			http.Error(w, "unexpected request", http.StatusBadRequest)
			return
		}
		prefix := r.URL.Query().Get("prefix")

		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
		b.WriteString(`<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`)
		b.WriteString(`<Name>corpus</Name><IsTruncated>false</IsTruncated>`)
		for _, k := range keys {
			if strings.HasPrefix(k, prefix) {
				fmt.Fprintf(&b, `<Contents><Key>%s</Key><Size>2</Size></Contents>`, k)
			}
		}
		b.WriteString(`</ListBucketResult>`)

		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(b.String()))
	}))
	t.Cleanup(srv.Close)
	return srv, &requests
}

func newFakeS3Client(t *testing.T, endpoint string) *S3Client {
	t.Helper()
	client, err := NewS3Client(context.Background(), S3ClientConfig{
		Endpoint:        endpoint,
		Region:          "us-east-1",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Bucket:          "corpus",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	return client
}

func TestS3Store_ListPrefixForms(t *testing.T) {
	srv, _ := newListingServer(t, []string{
		"grade7/cells.json",
		"grade7/forces.json",
		"grade7/drafts/old.json",
		"grade7x/other.json",
	})
	client := newFakeS3Client(t, srv.URL)

	tests := []struct {
		name         string
		prefix       string
		wantLocation string
	}{
		{name: "trailing slash", prefix: "grade7/", wantLocation: "s3://corpus/grade7/"},
		{name: "no trailing slash", prefix: "grade7", wantLocation: "s3://corpus/grade7/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewS3Store(client, tt.prefix)
			assert.Equal(t, tt.wantLocation, store.Location())

			keys, err := store.List(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []string{"cells.json", "forces.json"}, keys)
		})
	}
}

func TestS3Store_InvalidKeys(t *testing.T) {
	srv, requests := newListingServer(t, nil)
	store := NewS3Store(newFakeS3Client(t, srv.URL), "grade7/")
	ctx := context.Background()

	for _, key := range []string{"", "..", "../x.json", "sub/a.json", `..\x.json`} {
		t.Run(key, func(t *testing.T) {
			_, err := store.Read(ctx, key)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid document key")
			assert.Error(t, store.Write(ctx, key, []byte(`{}`)))
		})
	}
	assert.Zero(t, requests.Load(), "invalid keys must not reach the bucket")
}
