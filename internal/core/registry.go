package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/multibot-dev/multibot/internal/models"
	"github.com/multibot-dev/multibot/pkg/constants"
)

// Handler is a command callback. Extra bound arguments are closed over at
// registration time rather than passed positionally.
type Handler func(ctx context.Context, msg *models.Message) error

// RegisteredCallback binds a handler to its trigger keywords. Keywords is
// an AND of groups: every group needs at least one fuzzy match in the
// input; within a group any word counts. Identity is the registration
// name, so the same handler registered under several phrasings dedupes to
// its best-scoring registration at resolve time.
type RegisteredCallback struct {
	Name     string
	Handler  Handler
	Keywords [][]string
	Priority int
	MinScore float64
	Always   bool
	Default  bool
}

// Invoke runs the handler.
func (c *RegisteredCallback) Invoke(ctx context.Context, msg *models.Message) error {
	return c.Handler(ctx, msg)
}

// CallbackOptions tunes a registration. Zero values mean priority 1 and
// the configured default minimum score.
type CallbackOptions struct {
	Priority int
	MinScore float64
	Always   bool
	Default  bool
}

// Registry is the ordered dispatch table of a single bot instance. Text
// callbacks are populated at startup and read-only afterwards; button
// callbacks may be registered at runtime (one key per live button grid)
// and are guarded by a lock.
type Registry struct {
	defaultMinScore float64
	callbacks       []*RegisteredCallback

	mu              sync.RWMutex
	buttonCallbacks map[string][]*RegisteredCallback
}

// NewRegistry returns an empty registry using defaultMinScore for
// registrations that don't override it.
func NewRegistry(defaultMinScore float64) *Registry {
	if defaultMinScore == 0 {
		defaultMinScore = constants.DefaultCallbackMinScore
	}
	return &Registry{
		defaultMinScore: defaultMinScore,
		buttonCallbacks: make(map[string][]*RegisteredCallback),
	}
}

// Register appends a callback. keywords accepts a phrase string ("delete
// message"), a flat word list (one group), or explicit groups; see
// NormalizeKeywords.
func (r *Registry) Register(name string, handler Handler, keywords any, opts *CallbackOptions) error {
	if name == "" {
		return fmt.Errorf("callback registration requires a name")
	}
	if handler == nil {
		return fmt.Errorf("callback %s registered without a handler", name)
	}

	groups, err := NormalizeKeywords(keywords)
	if err != nil {
		return fmt.Errorf("callback %s: %w", name, err)
	}

	callback := &RegisteredCallback{
		Name:     name,
		Handler:  handler,
		Keywords: groups,
		Priority: 1,
		MinScore: r.defaultMinScore,
	}
	if opts != nil {
		if opts.Priority != 0 {
			callback.Priority = opts.Priority
		}
		if opts.MinScore != 0 {
			callback.MinScore = opts.MinScore
		}
		callback.Always = opts.Always
		callback.Default = opts.Default
	}

	r.callbacks = append(r.callbacks, callback)
	return nil
}

// RegisterButton binds a handler to a button correlation key. Button
// events route by key, not by text scoring.
func (r *Registry) RegisterButton(name string, handler Handler, key string) error {
	if key == "" {
		return fmt.Errorf("button callback %s requires a key", name)
	}
	if handler == nil {
		return fmt.Errorf("button callback %s registered without a handler", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buttonCallbacks[key] = append(r.buttonCallbacks[key], &RegisteredCallback{
		Name:    name,
		Handler: handler,
	})
	return nil
}

// Callbacks returns the registrations in registration order.
func (r *Registry) Callbacks() []*RegisteredCallback {
	return r.callbacks
}

// ButtonCallbacks returns the handlers registered under key.
func (r *Registry) ButtonCallbacks(key string) []*RegisteredCallback {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.buttonCallbacks[key]
}

// NormalizeKeywords converts any accepted keyword spec into the canonical
// groups shape. Accepted forms:
//
//	nil                →  no keywords
//	"delete message"   →  one group of the phrase's words
//	[]string{...}      →  one group of all words (entries may be phrases)
//	[][]string{...}    →  explicit groups, entries normalized per word
//
// Every word is lowercased and accent-stripped.
func NormalizeKeywords(spec any) ([][]string, error) {
	switch keywords := spec.(type) {
	case nil:
		return nil, nil
	case string:
		words := splitNormalized(keywords)
		if len(words) == 0 {
			return nil, nil
		}
		return [][]string{words}, nil
	case []string:
		var flat []string
		for _, entry := range keywords {
			flat = append(flat, splitNormalized(entry)...)
		}
		if len(flat) == 0 {
			return nil, nil
		}
		return [][]string{flat}, nil
	case [][]string:
		var groups [][]string
		for _, entry := range keywords {
			var group []string
			for _, word := range entry {
				group = append(group, splitNormalized(word)...)
			}
			groups = append(groups, group)
		}
		return groups, nil
	default:
		return nil, fmt.Errorf("unsupported keyword spec type %T", spec)
	}
}

func splitNormalized(phrase string) []string {
	return strings.Fields(RemoveAccents(strings.ToLower(strings.TrimSpace(phrase))))
}
