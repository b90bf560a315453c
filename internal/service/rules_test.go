package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cloo-solutions/chapterkit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	rules := DefaultRules()
	require.NoError(t, rules.Validate())

	assert.Equal(t, []string{"short_answer", "give_reasons"}, rules.OpenEndedTypes)
	assert.Equal(t, 12, rules.MinSubQuestionLength)
	assert.Equal(t, 8, rules.MaxExercisePrompts)
	assert.Equal(t, 6, rules.MaxTestPrompts)
	assert.Equal(t, 3, rules.ContextLimit)
	assert.Equal(t, domain.MaxKeyPoints, rules.MaxKeyPoints)
	assert.Equal(t, 20, rules.MaxQACards)
	assert.Equal(t, 10, rules.AuditTop)
}

func TestParseRules(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
		check   func(t *testing.T, r Rules)
	}{
		{
			name: "empty document keeps defaults",
			yaml: "",
			check: func(t *testing.T, r Rules) {
				assert.Equal(t, DefaultRules(), r)
			},
		},
		{
			name: "overrides merge over defaults",
			yaml: "max_test_prompts: 3\ntest_markers: [justify]\n",
			check: func(t *testing.T, r Rules) {
				assert.Equal(t, 3, r.MaxTestPrompts)
				assert.Equal(t, []string{"justify"}, r.TestMarkers)
				assert.Equal(t, 8, r.MaxExercisePrompts)
			},
		},
		{name: "unknown key", yaml: "max_prompts: 3\n", wantErr: true},
		{name: "malformed yaml", yaml: "max_test_prompts: [\n", wantErr: true},
		{name: "zero cap", yaml: "max_qa_cards: 0\n", wantErr: true},
		{name: "too many key points", yaml: "max_key_points: 5\n", wantErr: true},
		{name: "negative sub-question length", yaml: "min_sub_question_length: -1\n", wantErr: true},
		{name: "key point tokens above frequent tokens", yaml: "key_point_tokens: 13\n", wantErr: true},
		{
			name:    "fallback longer than key point cap",
			yaml:    "max_key_points: 2\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, err := ParseRules([]byte(tt.yaml))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidRules)
				return
			}
			require.NoError(t, err)
			tt.check(t, rules)
		})
	}
}

func TestLoadRules(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		rules, err := LoadRules("")
		require.NoError(t, err)
		assert.Equal(t, DefaultRules(), rules)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("audit_top: 3\n"), 0o644))

		rules, err := LoadRules(path)
		require.NoError(t, err)
		assert.Equal(t, 3, rules.AuditTop)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rules: read")
	})
}
