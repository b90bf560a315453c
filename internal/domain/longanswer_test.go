package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLongAnswerID(t *testing.T) {
	assert.Equal(t, "la1", LongAnswerID(1))
	assert.Equal(t, "la12", LongAnswerID(12))
}

func TestMarksFor(t *testing.T) {
	tests := []struct {
		position int
		want     int
	}{
		{1, 3},
		{2, 3},
		{3, 3},
		{4, 5},
		{8, 5},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, MarksFor(tt.position), "position %d", tt.position)
	}
}

func TestNewLongAnswer(t *testing.T) {
	la := NewLongAnswer(4, "Why?", "Why?\n\n- point", nil)

	assert.Equal(t, "la4", la.ID)
	assert.Equal(t, 5, la.Marks)
	assert.NotNil(t, la.KeyPoints)
	assert.Empty(t, la.KeyPoints)
}

func TestValidateLongAnswer(t *testing.T) {
	tests := []struct {
		name    string
		la      LongAnswer
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid",
			la:   NewLongAnswer(1, "Q", "Q\n\n- a", []string{"a"}),
		},
		{
			name:    "missing ID",
			la:      LongAnswer{Question: "Q", ModelAnswer: "A"},
			wantErr: true,
			errMsg:  "ID",
		},
		{
			name:    "missing question",
			la:      LongAnswer{ID: "la1", ModelAnswer: "A"},
			wantErr: true,
			errMsg:  "Question",
		},
		{
			name:    "missing model answer",
			la:      LongAnswer{ID: "la1", Question: "Q"},
			wantErr: true,
			errMsg:  "ModelAnswer",
		},
		{
			name:    "too many key points",
			la:      NewLongAnswer(1, "Q", "A", []string{"a", "b", "c", "d", "e"}),
			wantErr: true,
			errMsg:  "KeyPoints",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLongAnswer(tt.la)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
