package jobs

import (
	"context"
	"errors"
	"testing"

	"github.com/cloo-solutions/chapterkit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCorpusStore is a mock implementation of CorpusStore
type MockCorpusStore struct {
	mock.Mock
}

func (m *MockCorpusStore) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCorpusStore) Read(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCorpusStore) Write(ctx context.Context, key string, data []byte) error {
	args := m.Called(ctx, key, data)
	return args.Error(0)
}

func (m *MockCorpusStore) Location() string {
	return "mock://corpus"
}

// MockPass is a mock implementation of Pass
type MockPass struct {
	mock.Mock
}

func (m *MockPass) Name() string {
	return "mock"
}

func (m *MockPass) Apply(ctx context.Context, ch *domain.Chapter) (Outcome, error) {
	args := m.Called(ctx, ch.Key)
	return args.Get(0).(Outcome), args.Error(1)
}

type countingPass struct {
	begun    int
	chapters []string
}

func (p *countingPass) Name() string { return "counting" }

func (p *countingPass) Apply(_ context.Context, ch *domain.Chapter) (Outcome, error) {
	p.chapters = append(p.chapters, ch.Key)
	return Outcome{}, nil
}

func (p *countingPass) Begin() {
	p.begun++
	p.chapters = nil
}

func (p *countingPass) Summary() any {
	return len(p.chapters)
}

func TestRunner_Run(t *testing.T) {
	store := new(MockCorpusStore)
	pass := new(MockPass)

	store.On("List", mock.Anything).Return([]string{"a.json", "b.json", "c.json", "d.json", "e.json"}, nil)
	store.On("Read", mock.Anything, "a.json").Return([]byte(`{"test": []}`), nil)
	store.On("Read", mock.Anything, "b.json").Return([]byte(`{"test": []}`), nil)
	store.On("Read", mock.Anything, "c.json").Return([]byte(`not json`), nil)
	store.On("Read", mock.Anything, "d.json").Return(nil, errors.New("permission denied"))
	store.On("Read", mock.Anything, "e.json").Return([]byte(`{}`), nil)

	pass.On("Apply", mock.Anything, "a.json").Return(Outcome{Changed: true, Data: []byte(`{"a":1}`)}, nil)
	pass.On("Apply", mock.Anything, "b.json").Return(Outcome{}, nil)
	pass.On("Apply", mock.Anything, "e.json").Return(Outcome{Changed: true, Data: []byte(`{"e":1}`)}, nil)

	store.On("Write", mock.Anything, "a.json", []byte(`{"a":1}`)).Return(nil)
	store.On("Write", mock.Anything, "e.json", []byte(`{"e":1}`)).Return(errors.New("disk full"))

	report, err := NewRunner(store).Run(context.Background(), pass, RunOptions{})
	require.NoError(t, err)

	assert.Equal(t, "mock", report.Pass)
	assert.Equal(t, "mock://corpus", report.Corpus)
	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Unchanged)
	assert.Equal(t, 3, report.Errors)
	// c.json never parses but still counts toward Total.
	assert.Equal(t, report.Total, report.Updated+report.Unchanged+report.Errors)
	require.Len(t, report.Failures, 3)
	assert.Equal(t, "c.json", report.Failures[0].Key)
	assert.Equal(t, "d.json", report.Failures[1].Key)
	assert.Equal(t, "e.json", report.Failures[2].Key)
	assert.Contains(t, report.Failures[2].Error, "disk full")
	assert.False(t, report.FinishedAt.Before(report.StartedAt))

	store.AssertExpectations(t)
	pass.AssertExpectations(t)
	pass.AssertNotCalled(t, "Apply", mock.Anything, "c.json")
}

func TestRunner_Run_DryRunNeverWrites(t *testing.T) {
	store := new(MockCorpusStore)
	pass := new(MockPass)

	store.On("List", mock.Anything).Return([]string{"a.json"}, nil)
	store.On("Read", mock.Anything, "a.json").Return([]byte(`{}`), nil)
	pass.On("Apply", mock.Anything, "a.json").Return(Outcome{Changed: true, Data: []byte(`{"a":1}`)}, nil)

	report, err := NewRunner(store).Run(context.Background(), pass, RunOptions{DryRun: true})
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Updated)
	store.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunner_Run_ListFailureIsFatal(t *testing.T) {
	store := new(MockCorpusStore)
	store.On("List", mock.Anything).Return(nil, errors.New("no such directory"))

	report, err := NewRunner(store).Run(context.Background(), new(MockPass), RunOptions{})
	require.Error(t, err)
	assert.Nil(t, report)
	assert.Contains(t, err.Error(), "failed to list corpus")
}

func TestRunner_Run_NilStore(t *testing.T) {
	_, err := NewRunner(nil).Run(context.Background(), new(MockPass), RunOptions{})
	assert.ErrorIs(t, err, domain.ErrStoreNotConfigured)
}

func TestRunner_Run_CancelledContext(t *testing.T) {
	store := new(MockCorpusStore)
	store.On("List", mock.Anything).Return([]string{"a.json"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := NewRunner(store).Run(ctx, new(MockPass), RunOptions{})
	require.Error(t, err)
	require.NotNil(t, report)
	assert.Zero(t, report.Total)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_Run_Summarizer(t *testing.T) {
	store := new(MockCorpusStore)
	store.On("List", mock.Anything).Return([]string{"a.json", "b.json"}, nil)
	store.On("Read", mock.Anything, mock.Anything).Return([]byte(`{}`), nil)

	pass := &countingPass{}
	runner := NewRunner(store)

	for i := 0; i < 2; i++ {
		report, err := runner.Run(context.Background(), pass, RunOptions{})
		require.NoError(t, err)
		assert.Equal(t, 2, report.Summary)
		assert.Equal(t, 2, report.Unchanged)
	}
	assert.Equal(t, 2, pass.begun)
}

func TestReport_Run(t *testing.T) {
	report := &Report{Pass: domain.PassQACards, Corpus: "dir", Total: 3, Updated: 1, Unchanged: 2}
	run := report.Run("run-1")

	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, domain.PassQACards, run.Pass)
	assert.Equal(t, 3, run.Total)
	assert.NoError(t, domain.ValidateRun(run))
}
