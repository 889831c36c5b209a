package models

import (
	"fmt"
	"time"
)

// PenaltyKind distinguishes the two time-boxed moderation restrictions.
type PenaltyKind string

const (
	PenaltyBan  PenaltyKind = "ban"
	PenaltyMute PenaltyKind = "mute"
)

// Collection returns the store collection holding this kind of penalty.
func (k PenaltyKind) Collection() string {
	return string(k)
}

// Penalty is a ban or mute keyed by (platform, user, group). Until is zero
// for indefinite penalties; otherwise the penalty scheduler reverses it once
// the instant has passed.
type Penalty struct {
	Kind       PenaltyKind
	Platform   Platform
	UserID     string
	GroupID    string
	Until      time.Time
	IsActive   bool
	LastUpdate time.Time
}

// NewPenalty creates an active penalty. A zero duration means indefinite.
func NewPenalty(kind PenaltyKind, platform Platform, userID, groupID string, duration time.Duration) *Penalty {
	p := &Penalty{
		Kind:       kind,
		Platform:   platform,
		UserID:     userID,
		GroupID:    groupID,
		IsActive:   true,
		LastUpdate: time.Now().UTC(),
	}
	if duration > 0 {
		p.Until = time.Now().UTC().Add(duration)
	}
	return p
}

// Expired reports whether the penalty has a deadline that already passed.
func (p *Penalty) Expired(now time.Time) bool {
	return !p.Until.IsZero() && !p.Until.After(now)
}

// Key returns the store key fields identifying this penalty.
func (p *Penalty) Key() map[string]any {
	return map[string]any{
		"platform": p.Platform.String(),
		"user_id":  p.UserID,
		"group_id": p.GroupID,
	}
}

// Document renders the penalty for persistence.
func (p *Penalty) Document() map[string]any {
	doc := map[string]any{
		"platform":    p.Platform.String(),
		"user_id":     p.UserID,
		"group_id":    p.GroupID,
		"is_active":   p.IsActive,
		"last_update": p.LastUpdate.Format(time.RFC3339Nano),
	}
	if !p.Until.IsZero() {
		doc["until"] = p.Until.Format(time.RFC3339Nano)
	}
	return doc
}

// PenaltyFromDocument rebuilds a penalty from its stored representation.
func PenaltyFromDocument(kind PenaltyKind, doc map[string]any) (*Penalty, error) {
	p := &Penalty{Kind: kind}
	var ok bool
	platform, ok := doc["platform"].(string)
	if !ok {
		return nil, fmt.Errorf("penalty document missing platform: %v", doc)
	}
	p.Platform = Platform(platform)
	if p.UserID, ok = doc["user_id"].(string); !ok {
		return nil, fmt.Errorf("penalty document missing user_id: %v", doc)
	}
	if p.GroupID, ok = doc["group_id"].(string); !ok {
		return nil, fmt.Errorf("penalty document missing group_id: %v", doc)
	}
	if active, ok := doc["is_active"].(bool); ok {
		p.IsActive = active
	}
	if raw, ok := doc["until"].(string); ok && raw != "" {
		until, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("penalty document has bad until %q: %w", raw, err)
		}
		p.Until = until
	}
	if raw, ok := doc["last_update"].(string); ok && raw != "" {
		if updated, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			p.LastUpdate = updated
		}
	}
	return p, nil
}
