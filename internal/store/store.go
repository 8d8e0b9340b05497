// Package store holds the in-memory mention set shared by all ingestion paths.
package store

import (
	"sync"
	"time"

	"github.com/Think-Big-Media/v2-war-room-sub005/internal/models"
)

// DefaultConversationalLimit bounds the chat-integration list
const DefaultConversationalLimit = 100

// Store keeps mentions keyed by source. Structured sources (social, web) are
// replaced wholesale on each delivery; the conversational source is a
// newest-first list capped at a fixed length.
type Store struct {
	mu                sync.RWMutex
	social            []models.Mention
	web               []models.Mention
	conversational    []models.Mention
	limit             int
	structuredUpdated time.Time
}

// Snapshot is a point-in-time copy of the store suitable for persistence
type Snapshot struct {
	TakenAt           time.Time        `json:"taken_at"`
	Social            []models.Mention `json:"social"`
	Web               []models.Mention `json:"web"`
	Conversational    []models.Mention `json:"conversational"`
	StructuredUpdated *time.Time       `json:"structured_updated,omitempty"`
}

// New creates an empty store. A non-positive limit falls back to the default.
func New(limit int) *Store {
	if limit <= 0 {
		limit = DefaultConversationalLimit
	}
	return &Store{limit: limit}
}

// ReplaceStructured overwrites the social and web lists. A nil slice leaves
// the matching list untouched; an empty slice clears it.
func (s *Store) ReplaceStructured(social, web []models.Mention, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if social != nil {
		s.social = clone(social)
	}
	if web != nil {
		s.web = clone(web)
	}
	s.structuredUpdated = at
}

// PrependConversational adds a mention to the front of the chat list and
// drops the oldest entries beyond the limit.
func (s *Store) PrependConversational(mention models.Mention) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]models.Mention, 0, min(len(s.conversational)+1, s.limit))
	list = append(list, mention)
	for _, m := range s.conversational {
		if len(list) == s.limit {
			break
		}
		list = append(list, m)
	}
	s.conversational = list

	return len(s.conversational)
}

// Structured returns social mentions followed by web mentions
func (s *Store) Structured() []models.Mention {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Mention, 0, len(s.social)+len(s.web))
	out = append(out, s.social...)
	return append(out, s.web...)
}

// Conversational returns chat mentions, newest first
func (s *Store) Conversational() []models.Mention {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.conversational)
}

// All returns every stored mention across sources
func (s *Store) All() []models.Mention {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Mention, 0, len(s.social)+len(s.web)+len(s.conversational))
	out = append(out, s.social...)
	out = append(out, s.web...)
	return append(out, s.conversational...)
}

// StructuredUpdated reports when a structured delivery last landed
func (s *Store) StructuredUpdated() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.structuredUpdated, !s.structuredUpdated.IsZero()
}

// ConversationalUpdated returns the timestamp of the newest chat mention
func (s *Store) ConversationalUpdated() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.conversational) == 0 {
		return "", false
	}
	return s.conversational[0].Timestamp, true
}

// Counts returns the number of mentions held per source
func (s *Store) Counts() map[models.SourceKind]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[models.SourceKind]int{
		models.SourceSocial: len(s.social),
		models.SourceWeb:    len(s.web),
		models.SourceSlack:  len(s.conversational),
	}
}

// Snapshot copies the current contents
func (s *Store) Snapshot(at time.Time) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		TakenAt:        at,
		Social:         clone(s.social),
		Web:            clone(s.web),
		Conversational: clone(s.conversational),
	}
	if !s.structuredUpdated.IsZero() {
		updated := s.structuredUpdated
		snap.StructuredUpdated = &updated
	}
	return snap
}

// Restore replaces the contents with a snapshot. Source tags are not
// serialized, so they are reapplied from the list each mention belongs to.
func (s *Store) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.social = tagged(snap.Social, models.SourceSocial)
	s.web = tagged(snap.Web, models.SourceWeb)

	conversational := tagged(snap.Conversational, models.SourceSlack)
	if len(conversational) > s.limit {
		conversational = conversational[:s.limit]
	}
	s.conversational = conversational

	s.structuredUpdated = time.Time{}
	if snap.StructuredUpdated != nil {
		s.structuredUpdated = *snap.StructuredUpdated
	}
}

func tagged(mentions []models.Mention, source models.SourceKind) []models.Mention {
	out := clone(mentions)
	for i := range out {
		out[i].Source = source
	}
	return out
}

func clone(mentions []models.Mention) []models.Mention {
	if mentions == nil {
		return nil
	}
	out := make([]models.Mention, len(mentions))
	copy(out, mentions)
	return out
}
