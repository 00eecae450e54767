package assistant

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bgc-assistant/internal/conversation"
	"bgc-assistant/internal/locale"
	"bgc-assistant/internal/metrics"
	"bgc-assistant/internal/pdf"
	"bgc-assistant/internal/retriever"
)

type fakeRetriever struct {
	docs      []retriever.Document
	searchErr error
	healthErr error
	indexes   []string
}

func (f *fakeRetriever) Search(_ context.Context, index, _ string) ([]retriever.Document, error) {
	f.indexes = append(f.indexes, index)
	return f.docs, f.searchErr
}

func (f *fakeRetriever) HealthCheck(_ context.Context, index string) error {
	f.indexes = append(f.indexes, index)
	return f.healthErr
}

type fakeRenderer struct {
	fail  map[int]bool
	pages []int
}

func (f *fakeRenderer) Capture(_ context.Context, pdfPath string, pages []int) []pdf.Screenshot {
	f.pages = append(f.pages, pages...)
	var shots []pdf.Screenshot
	for _, p := range pages {
		if f.fail[p] {
			continue
		}
		shots = append(shots, pdf.Screenshot{Page: p, Path: filepath.Join("shots", pdfPath, "page")})
	}
	return shots
}

func ticking() func() time.Time {
	now := time.Date(2024, 11, 3, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(time.Second)
		return now
	}
}

type fixture struct {
	session  *Session
	model    *fakeModel
	retr     *fakeRetriever
	renderer *fakeRenderer
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		model: &fakeModel{answer: "BGC processes associated gas."},
		retr: &fakeRetriever{docs: []retriever.Document{
			{Text: "a", Page: page(5)},
			{Text: "b", Page: page(3)},
			{Text: "c", Page: page(5)},
		}},
		renderer: &fakeRenderer{fail: map[int]bool{}},
		metrics:  metrics.New(),
	}
	f.session = NewSession(Options{
		Store:     conversation.NewStore(conversation.WithClock(ticking())),
		Assembler: NewAssembler(f.model),
		Retriever: f.retr,
		Renderer:  f.renderer,
		KnowledgeBases: map[locale.Language]KnowledgeBase{
			locale.English: {Index: "english", PDF: "BGC.pdf"},
			locale.Arabic:  {Index: "arabic", PDF: "BGC-Ar.pdf"},
		},
		Metrics:  f.metrics,
		Language: locale.English,
	})
	return f
}

func TestSubmitTextAnswersWithReferences(t *testing.T) {
	f := newFixture(t)
	require.Empty(t, f.session.Startup(context.Background()))

	res := f.session.SubmitText(context.Background(), "  What does BGC do?  ")
	require.False(t, res.Failed())

	assert.Equal(t, "What does BGC do?", res.Question)
	assert.Equal(t, "BGC processes associated gas.", res.Answer)
	assert.NotEmpty(t, res.TurnID)
	assert.True(t, res.ShowReferences)
	assert.Len(t, res.References, 3)
	assert.Equal(t, []int{3, 5}, res.Pages)
	assert.Len(t, res.Screenshots, 2)
	assert.Equal(t, []int{3, 5}, f.renderer.pages)

	conv, err := f.session.Store().Get(res.ConversationID)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, conversation.RoleUser, conv.Messages[0].Role)
	assert.Equal(t, "What does BGC do?", conv.Title)
	assert.Len(t, conv.Messages[1].References, 3)

	mem, err := f.session.Store().Memory(res.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, 2, mem.Len())

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Turns.WithLabelValues(metrics.OutcomeAnswered)))
}

func TestSubmitTextSuppressesReferencesOnNegativeAnswer(t *testing.T) {
	f := newFixture(t)
	f.model.answer = "I'm sorry, I don't have enough information to answer that question."

	res := f.session.SubmitText(context.Background(), "What is the CEO's favourite colour?")
	require.False(t, res.Failed())
	assert.False(t, res.ShowReferences)
	assert.Empty(t, res.Pages)
	assert.Empty(t, res.Screenshots)
	assert.Empty(t, f.renderer.pages)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ReferencesSuppressed))
}

func TestSubmitTextCountsScreenshotFailures(t *testing.T) {
	f := newFixture(t)
	f.renderer.fail[3] = true

	res := f.session.SubmitText(context.Background(), "What does BGC do?")
	require.Len(t, res.Screenshots, 1)
	assert.Equal(t, 5, res.Screenshots[0].Page)
	assert.Equal(t, []int{3, 5}, res.Pages)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ScreenshotFailures))
}

func TestSubmitTextFailureLeavesConversationUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(f *fixture)
		outcome string
	}{
		{
			name:    "model error",
			setup:   func(f *fixture) { f.model.err = errors.New("upstream timeout") },
			outcome: metrics.OutcomeModelError,
		},
		{
			name:    "retrieval error",
			setup:   func(f *fixture) { f.retr.searchErr = errors.New("connection refused") },
			outcome: metrics.OutcomeRetrievalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			first := f.session.SubmitText(context.Background(), "What does BGC do?")
			require.False(t, first.Failed())

			tt.setup(f)
			f.session.SetLanguage(locale.Arabic)
			res := f.session.SubmitText(context.Background(), "Second question")
			assert.True(t, res.Failed())
			assert.Contains(t, res.Error, "عذرًا")
			assert.Empty(t, res.Answer)

			conv, err := f.session.Store().Get(first.ConversationID)
			require.NoError(t, err)
			assert.Len(t, conv.Messages, 2)
			mem, err := f.session.Store().Memory(first.ConversationID)
			require.NoError(t, err)
			assert.Equal(t, 2, mem.Len())

			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Turns.WithLabelValues(tt.outcome)))
		})
	}
}

func TestSubmitTextFailureDropsConversationItOpened(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture)
	}{
		{"model error", func(f *fixture) { f.model.err = errors.New("upstream timeout") }},
		{"retrieval error", func(f *fixture) { f.retr.searchErr = errors.New("connection refused") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)
			require.Equal(t, 0, f.session.Store().Len())

			res := f.session.SubmitText(context.Background(), "What does BGC do?")
			assert.True(t, res.Failed())
			assert.Empty(t, res.ConversationID)
			assert.Equal(t, 0, f.session.Store().Len())
			assert.Empty(t, f.session.Store().Active())
		})
	}
}

func TestSubmitTextFailureKeepsConversationOpenedByUser(t *testing.T) {
	f := newFixture(t)
	id := f.session.NewConversation()
	f.model.err = errors.New("upstream timeout")

	res := f.session.SubmitText(context.Background(), "What does BGC do?")
	assert.True(t, res.Failed())
	assert.Equal(t, id, res.ConversationID)
	assert.Equal(t, 1, f.session.Store().Len())
	assert.Equal(t, id, f.session.Store().Active())
}

func TestStartupDisablesRetrievalOnce(t *testing.T) {
	f := newFixture(t)
	f.retr.healthErr = retriever.ErrIndexUnavailable

	banner := f.session.Startup(context.Background())
	assert.Contains(t, banner, "Error loading embeddings")
	assert.True(t, f.session.RetrievalDisabled())
	assert.Empty(t, f.session.Startup(context.Background()))

	f.retr.indexes = nil
	res := f.session.SubmitText(context.Background(), "What does BGC do?")
	require.False(t, res.Failed())
	assert.Empty(t, f.retr.indexes)
	assert.Empty(t, res.References)
	assert.Empty(t, res.Pages)
	assert.NotContains(t, f.model.calls[0][0].Content, "Context:")
}

func TestSetLanguageRechecksIndex(t *testing.T) {
	f := newFixture(t)
	require.Empty(t, f.session.Startup(context.Background()))

	f.session.SetLanguage(locale.Arabic)
	require.Empty(t, f.session.Startup(context.Background()))
	f.session.SubmitText(context.Background(), "ما هي شركة غاز البصرة؟")

	assert.Equal(t, []string{"english", "arabic", "arabic"}, f.retr.indexes)
}

func TestConversationHandlers(t *testing.T) {
	f := newFixture(t)

	first := f.session.NewConversation()
	f.session.SubmitText(context.Background(), "first question")
	second := f.session.NewConversation()
	assert.NotEqual(t, first, second)
	assert.Len(t, f.session.Store().ListVisible(), 1)

	f.session.SubmitVoice(context.Background(), "spoken question")
	require.NoError(t, f.session.SelectConversation(first))
	assert.Equal(t, first, f.session.Store().Active())
	assert.Len(t, f.session.Store().ListVisible(), 2)

	assert.ErrorIs(t, f.session.SelectConversation("19700101_000000"), conversation.ErrUnknownConversation)

	assert.Equal(t, "Chat has been reset successfully.", f.session.Reset())
	assert.Zero(t, f.session.Store().Len())
	assert.Empty(t, f.session.Store().Active())
}

func TestSubmitVoiceAndEmptyInput(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, TurnResult{}, f.session.SubmitText(context.Background(), "   "))
	assert.Empty(t, f.model.calls)

	res := f.session.SubmitVoice(context.Background(), "What does BGC do?")
	assert.True(t, res.Voice)
	assert.Equal(t, "BGC processes associated gas.", res.Answer)
}

func TestSessionPersistsSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	f := newFixture(t)
	f.session.statePath = path

	res := f.session.SubmitText(context.Background(), "What does BGC do?")
	require.False(t, res.Failed())

	restored := conversation.NewStore()
	require.NoError(t, restored.RestoreSnapshot(path))
	conv, err := restored.Get(res.ConversationID)
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 2)
}
