// Package catalog holds the reward catalog: the static mapping from a reward
// kind to its credit amount and anti-abuse caps. A Catalog value is immutable
// once built; operators reconfigure by swapping the whole snapshot in a
// Store, never by mutating rules in place.
package catalog

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/quoteworks/creditledger/internal/config"
	"github.com/quoteworks/creditledger/internal/models"
)

// Rule defines the credit amount and per-day cap for one reward kind.
type Rule struct {
	Amount             int64 // Credits granted per occurrence.
	MaxPerActionPerDay int64 // Per-kind daily ceiling, 0 means uncapped.
}

// Catalog is an immutable reward rule snapshot.
type Catalog struct {
	rules            map[models.EventKind]Rule
	maxCreditsPerDay int64
}

// New builds a Catalog from config entries. Reserved engine kinds cannot be
// used as reward kinds.
func New(rules map[string]config.RewardRuleConfig, maxCreditsPerDay int64) (*Catalog, error) {
	normalized := make(map[models.EventKind]Rule, len(rules))
	for raw, rule := range rules {
		kind, ok := models.NormalizeEventKind(raw)
		if !ok {
			return nil, fmt.Errorf("catalog: empty reward kind")
		}
		if models.IsReservedEventKind(kind) {
			return nil, fmt.Errorf("catalog: reserved kind %q cannot be a reward", kind)
		}
		normalized[kind] = Rule{
			Amount:             rule.Amount,
			MaxPerActionPerDay: rule.MaxPerActionPerDay,
		}
	}
	return &Catalog{rules: normalized, maxCreditsPerDay: maxCreditsPerDay}, nil
}

// Rule returns the rule for a reward kind.
func (c *Catalog) Rule(kind models.EventKind) (Rule, bool) {
	if c == nil {
		return Rule{}, false
	}
	rule, ok := c.rules[kind]
	return rule, ok
}

// MaxCreditsPerDay returns the global daily credit ceiling, 0 means uncapped.
func (c *Catalog) MaxCreditsPerDay() int64 {
	if c == nil {
		return 0
	}
	return c.maxCreditsPerDay
}

// Kinds returns the configured reward kinds in sorted order.
func (c *Catalog) Kinds() []models.EventKind {
	if c == nil {
		return nil
	}
	kinds := make([]models.EventKind, 0, len(c.rules))
	for kind := range c.rules {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Store publishes the active Catalog snapshot. Readers always observe a
// complete snapshot; a reload swaps the pointer and never blocks requests.
type Store struct {
	current atomic.Pointer[Catalog]
}

// NewStore constructs a Store holding the given snapshot.
func NewStore(c *Catalog) *Store {
	s := &Store{}
	s.current.Store(c)
	return s
}

// Current returns the active snapshot.
func (s *Store) Current() *Catalog {
	if s == nil {
		return nil
	}
	return s.current.Load()
}

// Swap replaces the active snapshot.
func (s *Store) Swap(c *Catalog) {
	if s == nil || c == nil {
		return
	}
	s.current.Store(c)
}
