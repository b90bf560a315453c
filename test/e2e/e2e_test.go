//go:build e2e

package e2e

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/cloo-solutions/chapterkit/internal/storage"
	"github.com/cloo-solutions/chapterkit/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestE2E_CLIDirCorpus(t *testing.T) {
	env := NewE2EEnv(t)
	defer env.Cleanup()

	corpus := writeFixtureCorpus(t)

	t.Run("long answers", func(t *testing.T) {
		stdout, stderr, err := env.RunChapterkit(nil, "enrich", "long-answers", "--corpus", corpus)
		require.NoError(t, err, stderr)
		assert.Contains(t, stdout, "Updated 2/3 chapters with textbookExercise.longAnswers")

		data, err := os.ReadFile(filepath.Join(corpus, "cells.json"))
		require.NoError(t, err)
		answers := gjson.GetBytes(data, "textbookExercise.longAnswers")
		require.Len(t, answers.Array(), 2)
		assert.Equal(t, "What is a cell wall?", answers.Get("0.question").String())
		assert.Equal(t, "Explain key points: cell, the, wall, plant.", answers.Get("0.keyPoints.1").String())

		forces, err := os.ReadFile(filepath.Join(corpus, "forces.json"))
		require.NoError(t, err)
		assert.Equal(t, "Forces", gjson.GetBytes(forces, "textbookExercise.chapterName").String())
	})

	t.Run("second run changes nothing", func(t *testing.T) {
		before, err := os.ReadFile(filepath.Join(corpus, "cells.json"))
		require.NoError(t, err)

		stdout, stderr, err := env.RunChapterkit(nil, "enrich", "long-answers", "--corpus", corpus)
		require.NoError(t, err, stderr)
		assert.Contains(t, stdout, "Updated 0/3 chapters")

		after, err := os.ReadFile(filepath.Join(corpus, "cells.json"))
		require.NoError(t, err)
		assert.Equal(t, string(before), string(after))
	})

	t.Run("qa cards", func(t *testing.T) {
		stdout, stderr, err := env.RunChapterkit(nil, "enrich", "qa-cards", "--corpus", corpus)
		require.NoError(t, err, stderr)
		assert.Contains(t, stdout, "Updated 2 chapter files with memorize qaCards")

		data, err := os.ReadFile(filepath.Join(corpus, "cells.json"))
		require.NoError(t, err)
		assert.Equal(t, "chapter_test_explanation", gjson.GetBytes(data, "textbookExercise.qaCards.0.source").String())
	})

	t.Run("audit", func(t *testing.T) {
		stdout, stderr, err := env.RunChapterkit(nil, "audit", "--corpus", corpus, "--output", "json")
		require.NoError(t, err, stderr)

		assert.Equal(t, int64(3), gjson.Get(stdout, "report.summary.scanned").Int())
		assert.Equal(t, int64(0), gjson.Get(stdout, "report.summary.flagged").Int())
	})

	t.Run("help json", func(t *testing.T) {
		stdout, _, err := env.RunChapterkit(nil, "enrich", "long-answers", "--help-json")
		require.NoError(t, err)
		assert.Equal(t, "long-answers", gjson.Get(stdout, "name").String())
	})
}

func TestE2E_DaemonRunLog(t *testing.T) {
	env := NewE2EEnv(t)
	defer env.Cleanup()

	pg := testutil.NewPostgresContainer(env.Ctx, t)
	defer pg.Terminate(env.Ctx)

	migrations, err := filepath.Abs("../../migrations")
	require.NoError(t, err)

	corpus := writeFixtureCorpus(t)
	dbEnv := []string{"CHAPTERKIT_DATABASE_URL=" + pg.ConnectionString()}

	env.APIToken = "e2e-token"
	env.StartDaemon(append(dbEnv, "CHAPTERKIT_CORPUS_DIR="+corpus), "--migrations", migrations)

	resp, err := http.Get(env.ServerURL + "/runs")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	created, err := env.Post("/runs", map[string]any{"pass": "long-answers"})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, created.Status, created.Error)
	runID := gjson.GetBytes(created.Data, "id").String()
	require.NotEmpty(t, runID)
	assert.Equal(t, int64(2), gjson.GetBytes(created.Data, "updated").Int())

	unknown, err := env.Post("/runs", map[string]any{"pass": "translate"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, unknown.Status)

	list, err := env.Get("/runs?limit=10")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, list.Status)
	var page struct {
		Items []struct {
			ID   string `json:"id"`
			Pass string `json:"pass"`
		} `json:"items"`
		HasMore bool `json:"has_more"`
	}
	require.NoError(t, json.Unmarshal(list.Data, &page))
	require.Len(t, page.Items, 1)
	assert.Equal(t, runID, page.Items[0].ID)

	got, err := env.Get("/runs/" + runID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, got.Status)
	assert.Equal(t, int64(3), gjson.GetBytes(got.Data, "total").Int())

	missing, err := env.Get("/runs/00000000-0000-0000-0000-000000000000")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, missing.Status)

	stdout, stderr, err := env.RunChapterkit(dbEnv, "enrich", "qa-cards", "--corpus", corpus)
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "run: ")

	stdout, stderr, err = env.RunChapterkitd(dbEnv, "runs", "list")
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, runID)
	assert.Contains(t, stdout, "qa-cards")

	stdout, stderr, err = env.RunChapterkitd(dbEnv, "runs", "show", runID)
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "Pass:      long-answers")
}

func TestE2E_S3Corpus(t *testing.T) {
	env := NewE2EEnv(t)
	defer env.Cleanup()

	fs := testutil.NewRustFSContainer(env.Ctx, t)
	defer fs.Terminate(env.Ctx)
	accessKey, secretKey := fs.Credentials()

	client, err := storage.NewS3Client(env.Ctx, storage.S3ClientConfig{
		Endpoint:        fs.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     accessKey,
		SecretAccessKey: secretKey,
		Bucket:          "chapters-e2e",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, client.EnsureBucket(env.Ctx))

	entries, err := os.ReadDir("testdata/chapters")
	require.NoError(t, err)
	for _, entry := range entries {
		data, err := os.ReadFile(filepath.Join("testdata/chapters", entry.Name()))
		require.NoError(t, err)
		require.NoError(t, client.PutObject(env.Ctx, "grade7/"+entry.Name(), data, "application/json"))
	}

	s3Env := []string{
		"CHAPTERKIT_S3_ENDPOINT=" + fs.Endpoint(),
		"CHAPTERKIT_S3_ACCESS_KEY_ID=" + accessKey,
		"CHAPTERKIT_S3_SECRET_ACCESS_KEY=" + secretKey,
		"CHAPTERKIT_S3_BUCKET=chapters-e2e",
	}
	stdout, stderr, err := env.RunChapterkit(s3Env, "enrich", "long-answers", "--backend", "s3", "--corpus", "grade7/")
	require.NoError(t, err, stderr)
	assert.Contains(t, stdout, "Updated 2/3 chapters")

	data, err := client.GetObject(env.Ctx, "grade7/forces.json")
	require.NoError(t, err)
	assert.Equal(t, "What is friction?", gjson.GetBytes(data, "textbookExercise.longAnswers.0.question").String())
}
