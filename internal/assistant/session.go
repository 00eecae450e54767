package assistant

import (
	"context"
	"strings"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"bgc-assistant/internal/classifier"
	"bgc-assistant/internal/conversation"
	"bgc-assistant/internal/locale"
	"bgc-assistant/internal/metrics"
	"bgc-assistant/internal/pdf"
	"bgc-assistant/internal/references"
	"bgc-assistant/internal/retriever"
)

// Retriever searches the embedding index of a knowledge base
type Retriever interface {
	Search(ctx context.Context, index, query string) ([]retriever.Document, error)
	HealthCheck(ctx context.Context, index string) error
}

// PageRenderer captures screenshots of cited PDF pages
type PageRenderer interface {
	Capture(ctx context.Context, pdfPath string, pages []int) []pdf.Screenshot
}

// KnowledgeBase is the index and source PDF used for one interface language
type KnowledgeBase struct {
	Index string
	PDF   string
}

// Options wires a Session to its collaborators. Retriever and Renderer may
// be nil, which disables retrieval and screenshots respectively.
type Options struct {
	Store          *conversation.Store
	Assembler      *Assembler
	Retriever      Retriever
	Classifier     classifier.Classifier
	Renderer       PageRenderer
	KnowledgeBases map[locale.Language]KnowledgeBase
	Metrics        *metrics.Metrics
	Language       locale.Language
	StatePath      string
}

// TurnResult is what the display needs after one submitted question
type TurnResult struct {
	TurnID         string
	ConversationID string
	Question       string
	Answer         string
	References     []conversation.Reference
	ShowReferences bool
	Pages          []int
	Screenshots    []pdf.Screenshot
	Voice          bool
	Error          string // localized, set instead of Answer when the turn failed
}

// Failed reports whether the turn ended with an error
func (r TurnResult) Failed() bool {
	return r.Error != ""
}

// Session is the explicit context of one user session. Every handler runs
// to completion before the next one is called; there is a single writer.
type Session struct {
	Language locale.Language

	store      *conversation.Store
	assembler  *Assembler
	retriever  Retriever
	classifier classifier.Classifier
	renderer   PageRenderer
	bases      map[locale.Language]KnowledgeBase
	metrics    *metrics.Metrics
	statePath  string

	checked           bool
	retrievalDisabled bool
	bannerShown       bool
}

// NewSession creates a session
func NewSession(opts Options) *Session {
	s := &Session{
		Language:   opts.Language,
		store:      opts.Store,
		assembler:  opts.Assembler,
		retriever:  opts.Retriever,
		classifier: opts.Classifier,
		renderer:   opts.Renderer,
		bases:      opts.KnowledgeBases,
		metrics:    opts.Metrics,
		statePath:  opts.StatePath,
	}
	if s.Language == "" {
		s.Language = locale.English
	}
	if s.store == nil {
		s.store = conversation.NewStore()
	}
	if s.classifier == nil {
		s.classifier = classifier.New()
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.bases == nil {
		s.bases = map[locale.Language]KnowledgeBase{}
	}
	return s
}

// Store exposes the conversation store for display
func (s *Session) Store() *conversation.Store {
	return s.store
}

// RetrievalDisabled reports whether turns run without retrieved context
func (s *Session) RetrievalDisabled() bool {
	return s.retrievalDisabled
}

// Startup checks the index of the current language. When it cannot be
// loaded retrieval is disabled and a localized banner is returned, once.
func (s *Session) Startup(ctx context.Context) string {
	if s.checked {
		return ""
	}
	s.checked = true

	kb, ok := s.bases[s.Language]
	if s.retriever == nil || !ok || kb.Index == "" {
		s.retrievalDisabled = true
		log.WithField("language", s.Language.Code()).Warn("no knowledge base configured, retrieval disabled")
		return ""
	}

	if err := s.retriever.HealthCheck(ctx, kb.Index); err != nil {
		s.retrievalDisabled = true
		log.WithError(err).WithField("index", kb.Index).Error("failed to load embedding index")
		if s.bannerShown {
			return ""
		}
		s.bannerShown = true
		return s.Language.T(locale.IndexLoadError, err)
	}

	s.retrievalDisabled = false
	return ""
}

// SetLanguage switches the interface language. The knowledge base of the
// new language is checked again by the next Startup call.
func (s *Session) SetLanguage(lang locale.Language) {
	if lang == s.Language {
		return
	}
	s.Language = lang
	s.checked = false
	s.bannerShown = false
}

// NewConversation creates a conversation and makes it active
func (s *Session) NewConversation() string {
	id := s.store.Create()
	s.persist()
	return id
}

// SelectConversation makes a listed conversation active
func (s *Session) SelectConversation(id string) error {
	if err := s.store.Load(id); err != nil {
		return err
	}
	s.persist()
	return nil
}

// Reset clears every conversation and returns the localized confirmation
func (s *Session) Reset() string {
	s.store.Reset()
	s.persist()
	return s.Language.T(locale.ResetDone)
}

// SubmitVoice handles a transcript produced by an external speech engine
func (s *Session) SubmitVoice(ctx context.Context, transcript string) TurnResult {
	result := s.SubmitText(ctx, transcript)
	result.Voice = true
	return result
}

// SubmitText answers question in the active conversation, creating one when
// none is active. On failure the conversation is left unchanged, and one
// opened for this turn is removed again.
func (s *Session) SubmitText(ctx context.Context, question string) TurnResult {
	question = strings.TrimSpace(question)
	if question == "" {
		return TurnResult{}
	}

	created := false
	if s.store.Active() == "" {
		s.store.Create()
		created = true
	}
	id := s.store.Active()

	result := TurnResult{
		TurnID:         uuid.New().String(),
		ConversationID: id,
		Question:       question,
	}
	tLog := log.WithFields(log.Fields{
		"conversation": id,
		"turn":         result.TurnID,
		"language":     s.Language.Code(),
	})

	fail := func(msg string, err error) TurnResult {
		tLog.WithError(err).Error(msg)
		if created {
			if rmErr := s.store.Remove(id); rmErr != nil {
				tLog.WithError(rmErr).Warn("failed to drop conversation of failed turn")
			}
			result.ConversationID = ""
		}
		result.Error = s.Language.T(locale.TurnError, err)
		return result
	}

	if err := s.store.Load(id); err != nil {
		return fail("failed to load conversation", err)
	}
	mem, err := s.store.Memory(id)
	if err != nil {
		return fail("failed to load conversation memory", err)
	}

	kb := s.bases[s.Language]
	var refs []conversation.Reference
	if !s.retrievalDisabled && s.retriever != nil && kb.Index != "" {
		docs, err := s.retriever.Search(ctx, kb.Index, question)
		if err != nil {
			s.metrics.Turns.WithLabelValues(metrics.OutcomeRetrievalError).Inc()
			return fail("retrieval failed", err)
		}
		refs = references.Extract(docs)
		tLog.WithField("documents", len(docs)).Debug("retrieved context")
	}

	resp, err := s.assembler.Respond(ctx, question, refs, mem, s.Language)
	s.metrics.ModelLatency.Observe(resp.Latency.Seconds())
	if err != nil {
		s.metrics.Turns.WithLabelValues(metrics.OutcomeModelError).Inc()
		return fail("failed to generate answer", err)
	}

	result.Answer = resp.Answer
	result.References = resp.References
	s.record(tLog, id, question, resp)

	if s.classifier.IsNegative(resp.Answer) {
		s.metrics.ReferencesSuppressed.Inc()
		tLog.Debug("answer reads as uncertain, references suppressed")
	} else {
		result.ShowReferences = true
		result.Pages = references.Pages(resp.References)
		if s.renderer != nil && kb.PDF != "" && len(result.Pages) > 0 {
			result.Screenshots = s.renderer.Capture(ctx, kb.PDF, result.Pages)
			if failed := len(result.Pages) - len(result.Screenshots); failed > 0 {
				s.metrics.ScreenshotFailures.Add(float64(failed))
			}
		}
	}

	s.metrics.Turns.WithLabelValues(metrics.OutcomeAnswered).Inc()
	s.persist()
	return result
}

// record appends the answered exchange to the conversation log
func (s *Session) record(tLog *log.Entry, id, question string, resp Response) {
	msgs := []conversation.Message{
		{Role: conversation.RoleUser, Content: question},
		{Role: conversation.RoleAssistant, Content: resp.Answer, References: resp.References},
	}
	for _, msg := range msgs {
		if err := s.store.Append(id, msg); err != nil {
			tLog.WithError(err).Error("failed to record message")
		}
	}
}

func (s *Session) persist() {
	if s.statePath == "" {
		return
	}
	if err := s.store.SaveSnapshot(s.statePath); err != nil {
		log.WithError(err).WithField("path", s.statePath).Warn("failed to save conversation snapshot")
	}
}
