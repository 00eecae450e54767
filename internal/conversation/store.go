package conversation

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"bgc-assistant/internal/memory"
)

// IDLayout is the time layout of conversation identifiers. Identifiers have
// second resolution, so two conversations created within the same second
// share an identifier and the later one replaces the earlier.
const IDLayout = "20060102_150405"

// DefaultTitleBudget is the number of characters kept from the first message
const DefaultTitleBudget = 50

// ErrUnknownConversation is returned for identifiers that were never created
var ErrUnknownConversation = errors.New("unknown conversation")

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Store maps conversation identifiers to their logs and paired memories.
// It is owned by one session and is not safe for concurrent use.
type Store struct {
	conversations map[string]*Conversation
	memories      map[string]*memory.Memory
	active        string
	now           func() time.Time
	titleBudget   int
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for identifiers and timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithTitleBudget overrides the title length in characters
func WithTitleBudget(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.titleBudget = n
		}
	}
}

// NewStore creates an empty store
func NewStore(opts ...Option) *Store {
	s := &Store{
		conversations: map[string]*Conversation{},
		memories:      map[string]*memory.Memory{},
		now:           time.Now,
		titleBudget:   DefaultTitleBudget,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create allocates a new conversation with a paired empty memory and makes it active
func (s *Store) Create() string {
	now := s.now()
	id := now.Format(IDLayout)
	if _, exists := s.conversations[id]; exists {
		log.WithField("conversation", id).Warn("conversation identifier collision, replacing existing conversation")
	}

	s.conversations[id] = &Conversation{
		ID:        id,
		CreatedAt: now,
		Messages:  []Message{},
	}
	s.memories[id] = memory.New()
	s.active = id
	return id
}

// Append adds msg to the conversation log. The first message sets the title
// and makes the conversation visible for good.
func (s *Store) Append(id string, msg Message) error {
	conv, ok := s.conversations[id]
	if !ok {
		return fmt.Errorf("append to %q: %w", id, ErrUnknownConversation)
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now()
	}
	if len(msg.References) > 0 {
		msg.References = append([]Reference(nil), msg.References...)
	}

	if len(conv.Messages) == 0 {
		conv.Title = makeTitle(msg.Content, s.titleBudget)
		conv.Visible = true
	}
	conv.Messages = append(conv.Messages, msg)
	return nil
}

// Load makes the conversation active, rebuilding its memory from the
// message log when the memory was never materialized.
func (s *Store) Load(id string) error {
	conv, ok := s.conversations[id]
	if !ok {
		return fmt.Errorf("load %q: %w", id, ErrUnknownConversation)
	}
	s.active = id

	if s.memories[id] == nil {
		s.memories[id] = rebuildMemory(conv.Messages)
		log.WithFields(log.Fields{
			"conversation": id,
			"turns":        s.memories[id].Len(),
		}).Debug("rebuilt conversation memory")
	}
	return nil
}

// Reset drops every conversation and memory. Memories already handed out
// are emptied too.
func (s *Store) Reset() {
	for _, mem := range s.memories {
		if mem != nil {
			mem.Clear()
		}
	}
	s.conversations = map[string]*Conversation{}
	s.memories = map[string]*memory.Memory{}
	s.active = ""
}

// Remove drops one conversation and its memory. Removing the active
// conversation leaves none active.
func (s *Store) Remove(id string) error {
	if _, ok := s.conversations[id]; !ok {
		return fmt.Errorf("remove %q: %w", id, ErrUnknownConversation)
	}
	if mem := s.memories[id]; mem != nil {
		mem.Clear()
	}
	delete(s.conversations, id)
	delete(s.memories, id)
	if s.active == id {
		s.active = ""
	}
	return nil
}

// Active returns the active conversation identifier, empty when none
func (s *Store) Active() string {
	return s.active
}

// Get returns a copy of the conversation
func (s *Store) Get(id string) (Conversation, error) {
	conv, ok := s.conversations[id]
	if !ok {
		return Conversation{}, fmt.Errorf("get %q: %w", id, ErrUnknownConversation)
	}
	out := *conv
	out.Messages = append([]Message(nil), conv.Messages...)
	return out, nil
}

// Memory returns the memory paired with the conversation. It is nil until
// Load materializes it for conversations restored from a snapshot.
func (s *Store) Memory(id string) (*memory.Memory, error) {
	if _, ok := s.conversations[id]; !ok {
		return nil, fmt.Errorf("memory of %q: %w", id, ErrUnknownConversation)
	}
	return s.memories[id], nil
}

// Len returns the number of conversations held, visible or not
func (s *Store) Len() int {
	return len(s.conversations)
}

// ListVisible returns visible conversations that have messages, newest first
func (s *Store) ListVisible() []Summary {
	var out []Summary
	for _, conv := range s.conversations {
		if !conv.Visible || len(conv.Messages) == 0 {
			continue
		}
		out = append(out, Summary{
			ID:           conv.ID,
			Title:        conv.Title,
			CreatedAt:    conv.CreatedAt,
			MessageCount: len(conv.Messages),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// ListVisibleByDate groups ListVisible by creation day, newest day first
func (s *Store) ListVisibleByDate() []DateGroup {
	var groups []DateGroup
	for _, sum := range s.ListVisible() {
		y, m, d := sum.CreatedAt.Date()
		day := time.Date(y, m, d, 0, 0, 0, 0, sum.CreatedAt.Location())
		if n := len(groups); n > 0 && groups[n-1].Date.Equal(day) {
			groups[n-1].Conversations = append(groups[n-1].Conversations, sum)
			continue
		}
		groups = append(groups, DateGroup{Date: day, Conversations: []Summary{sum}})
	}
	return groups
}

func rebuildMemory(msgs []Message) *memory.Memory {
	mem := memory.New()
	for _, msg := range msgs {
		switch msg.Role {
		case RoleUser:
			mem.AddUserMessage(msg.Content)
		case RoleAssistant:
			mem.AddAssistantMessage(msg.Content)
		}
	}
	return mem
}

func makeTitle(content string, budget int) string {
	title := newlineReplacer.Replace(strings.TrimSpace(content))
	runes := []rune(title)
	if len(runes) > budget {
		return string(runes[:budget]) + "..."
	}
	return title
}
