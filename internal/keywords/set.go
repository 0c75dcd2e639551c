package keywords

import (
	"errors"
	"slices"
	"sync/atomic"
)

// Default keyword groups.
var (
	DefaultActive    = []string{"TODO", "DOING", "NOW", "LATER", "WAIT", "WAITING", "IN-PROGRESS"}
	DefaultCompleted = []string{"DONE", "CANCELED", "CANCELLED"}
)

var versionSeq atomic.Uint64

// Classifier is what the parser needs from a keyword configuration.
type Classifier interface {
	Keywords() []string
	IsCompleted(keyword string) bool
}

// Set is an immutable, validated, ordered keyword collection. Every Set built
// by New, With or Without carries a fresh Version, which keys compiled regex
// caches.
type Set struct {
	keywords  []string
	completed map[string]struct{}
	version   uint64
}

var _ Classifier = (*Set)(nil)

// New validates and builds a Set. Active keywords come first, then completed
// ones; duplicates keep their first position.
func New(active, completed []string) (*Set, error) {
	if err := Validate(active); err != nil {
		return nil, err
	}
	if err := Validate(completed); err != nil {
		return nil, err
	}
	s := &Set{completed: make(map[string]struct{}, len(completed))}
	for _, k := range active {
		if !slices.Contains(s.keywords, k) {
			s.keywords = append(s.keywords, k)
		}
	}
	for _, k := range completed {
		if !slices.Contains(s.keywords, k) {
			s.keywords = append(s.keywords, k)
		}
		s.completed[k] = struct{}{}
	}
	if len(s.keywords) == 0 {
		return nil, &InvalidKeywordError{Reason: "keyword set is empty"}
	}
	s.version = versionSeq.Add(1)
	return s, nil
}

// Default returns the built-in keyword set.
func Default() *Set {
	s, err := New(DefaultActive, DefaultCompleted)
	if err != nil {
		panic(err)
	}
	return s
}

// Keywords returns the keywords in match order.
func (s *Set) Keywords() []string {
	return slices.Clone(s.keywords)
}

// Active returns the keywords outside the completed group.
func (s *Set) Active() []string {
	var out []string
	for _, k := range s.keywords {
		if _, ok := s.completed[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

// Completed returns the completed-group keywords in match order.
func (s *Set) Completed() []string {
	var out []string
	for _, k := range s.keywords {
		if _, ok := s.completed[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Contains reports whether k is in the set (case-sensitive).
func (s *Set) Contains(k string) bool {
	return slices.Contains(s.keywords, k)
}

// IsCompleted reports whether k belongs to the completed group.
func (s *Set) IsCompleted(k string) bool {
	_, ok := s.completed[k]
	return ok
}

// Version identifies this set for cache keys.
func (s *Set) Version() uint64 {
	return s.version
}

// Alternation returns the escaped regex alternation for the set.
func (s *Set) Alternation() string {
	return Alternation(s.keywords)
}

// With returns a new Set that also contains k. Adding an existing keyword
// moves it between groups if completed differs.
func (s *Set) With(k string, completed bool) (*Set, error) {
	active, done := s.Active(), s.Completed()
	active = slices.DeleteFunc(active, func(x string) bool { return x == k })
	done = slices.DeleteFunc(done, func(x string) bool { return x == k })
	if completed {
		done = append(done, k)
	} else {
		active = append(active, k)
	}
	return New(active, done)
}

// ErrLastKeyword is returned when removing the only keyword of a set.
var ErrLastKeyword = errors.New("keywords: cannot remove the last keyword")

// Without returns a new Set lacking k. Removing an unknown keyword still
// yields a new version.
func (s *Set) Without(k string) (*Set, error) {
	active := slices.DeleteFunc(s.Active(), func(x string) bool { return x == k })
	done := slices.DeleteFunc(s.Completed(), func(x string) bool { return x == k })
	if len(active)+len(done) == 0 {
		return nil, ErrLastKeyword
	}
	return New(active, done)
}
