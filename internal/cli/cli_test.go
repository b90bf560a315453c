package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/cloo-solutions/chapterkit/internal/config"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCommandTree() *cobra.Command {
	root := &cobra.Command{Use: "chapterkit", Short: "root"}
	AddHelpJSONFlag(root)

	enrich := &cobra.Command{Use: "enrich", Short: "enrich group"}
	pass := &cobra.Command{Use: "long-answers", Short: "pass", Run: func(*cobra.Command, []string) {}}
	var flags CorpusFlags
	flags.Bind(pass)
	pass.Flags().Bool("dry-run", false, "dry run")
	pass.Flags().String("token", "", "required token")
	_ = pass.MarkFlagRequired("token")

	hidden := &cobra.Command{Use: "secret", Hidden: true}

	enrich.AddCommand(pass)
	root.AddCommand(enrich, hidden)
	return root
}

func TestGenerateSchema(t *testing.T) {
	schema := GenerateSchema(testCommandTree())

	assert.Equal(t, "chapterkit", schema.Name)
	require.Len(t, schema.Subcommands, 1, "hidden and help commands are skipped")

	pass := schema.Subcommands[0].Subcommands[0]
	assert.Equal(t, "long-answers", pass.Name)

	byName := map[string]FlagSchema{}
	for _, f := range pass.Flags {
		byName[f.Name] = f
	}
	assert.Contains(t, byName, "corpus")
	assert.Contains(t, byName, "backend")
	assert.Contains(t, byName, "rules")
	assert.Equal(t, "bool", byName["dry-run"].Type)
	assert.True(t, byName["token"].Required)
	assert.False(t, byName["corpus"].Required)
}

func TestWriteSchema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSchema(&buf, testCommandTree()))

	var decoded CommandSchema
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "chapterkit", decoded.Name)
}

func TestFindTargetCommand(t *testing.T) {
	root := testCommandTree()

	assert.Equal(t, "long-answers", findTargetCommand(root, []string{"enrich", "long-answers"}).Name())
	assert.Equal(t, "enrich", findTargetCommand(root, []string{"enrich", "--corpus"}).Name())
	assert.Equal(t, "chapterkit", findTargetCommand(root, nil).Name())
}

func TestCorpusFlags_Apply(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			CorpusBackend: config.BackendDir,
			CorpusDir:     "content/chapters",
			CorpusPrefix:  "chapters/",
			S3Bucket:      "chapterkit-corpus",
		}
	}

	t.Run("dir corpus", func(t *testing.T) {
		cfg := base()
		f := CorpusFlags{Corpus: "/data/ch", Rules: "rules.yaml"}
		require.NoError(t, f.Apply(cfg))
		assert.Equal(t, "/data/ch", cfg.CorpusDir)
		assert.Equal(t, "chapters/", cfg.CorpusPrefix)
		assert.Equal(t, "rules.yaml", cfg.RulesFile)
	})

	t.Run("s3 prefix", func(t *testing.T) {
		cfg := base()
		cfg.S3AccessKey = "key"
		cfg.S3SecretKey = "secret"
		f := CorpusFlags{Corpus: "grade7/", Backend: "S3"}
		require.NoError(t, f.Apply(cfg))
		assert.Equal(t, config.BackendS3, cfg.CorpusBackend)
		assert.Equal(t, "grade7/", cfg.CorpusPrefix)
		assert.Equal(t, "content/chapters", cfg.CorpusDir)
	})

	t.Run("s3 without credentials", func(t *testing.T) {
		f := CorpusFlags{Backend: "s3"}
		assert.Error(t, f.Apply(base()))
	})

	t.Run("unknown backend", func(t *testing.T) {
		f := CorpusFlags{Backend: "ftp"}
		assert.Error(t, f.Apply(base()))
	})
}

func TestNewApp_DirBackend(t *testing.T) {
	cfg := &config.Config{CorpusBackend: config.BackendDir, CorpusDir: t.TempDir()}

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	assert.Nil(t, app.Pool)
	assert.False(t, app.Runs.HasRunLog())
	assert.Equal(t, cfg.CorpusDir, app.Store.Location())
}

func TestNewApp_InvalidRules(t *testing.T) {
	cfg := &config.Config{CorpusBackend: config.BackendDir, CorpusDir: t.TempDir(), RulesFile: "does-not-exist.yaml"}

	_, err := NewApp(context.Background(), cfg)
	assert.Error(t, err)
}
