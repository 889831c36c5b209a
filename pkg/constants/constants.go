package constants

import "time"

// Intent scoring parameters
const (
	// ScoreRewardExponent amplifies near-exact word matches over weak ones
	ScoreRewardExponent = 2.0
	// KeywordLengthPenalty divides a group score by penalty * group size so
	// that groups with many synonyms don't trivially dominate
	KeywordLengthPenalty = 0.001
	// MinimumScoreToMatch is the total score the top candidate must reach
	// when more than one callback matched
	MinimumScoreToMatch = 3.0
	// DefaultCallbackMinScore is the per-word-pair similarity floor used when
	// a registration doesn't override it
	DefaultCallbackMinScore = 0.93
	// MaxWordLength is the longest word the tokenizer keeps; anything longer
	// is noise (links, flooded keys) and never a keyword
	MaxWordLength = 25
)

// Dispatch and moderation limits
const (
	// DeleteMessageLimit is the maximum number of messages a bulk clear may
	// request in one command
	DeleteMessageLimit = 100
	// ExceptionReportMaxLines is the number of error detail lines forwarded
	// to the chat when an unclassified handler error is reported
	ExceptionReportMaxLines = 5
)

// Timeouts, sweeps and expirations
const (
	// MessageCacheTTL is how long a materialized message stays cached,
	// measured from its creation date
	MessageCacheTTL = 7 * 24 * time.Hour
	// MessageCacheSweepInterval is how often expired cache entries are evicted
	MessageCacheSweepInterval = time.Hour
	// PenaltySweepInterval is how often expired bans and mutes are reversed;
	// the sweep is the durable fallback when a deferred reversal was lost to
	// a process restart
	PenaltySweepInterval = time.Hour
	// OldRecordSweepInterval is how often expired message records are purged
	// from the store
	OldRecordSweepInterval = 24 * time.Hour
	// MessageExpirationTime is how long message records stay in the store
	MessageExpirationTime = 7 * 24 * time.Hour
	// ManualUnpunishThreshold bounds the deferred-reversal window: penalties
	// expiring later than this rely on the periodic sweep alone
	ManualUnpunishThreshold = 3 * 24 * time.Hour
	// ErrorMessageDuration is how long a user-visible error reply survives
	// before it is auto-deleted
	ErrorMessageDuration = 10 * time.Second
	// CommandMessageDuration is how long a transient command reply survives
	CommandMessageDuration = 5 * time.Second
)

// Platform message limits
const (
	// MaxDiscordMessageLength is Discord's message character limit
	MaxDiscordMessageLength = 2000
	// MaxTelegramMessageLength is Telegram's message character limit
	MaxTelegramMessageLength = 4096
	// MaxTwitchMessageLength is Twitch chat's message character limit
	MaxTwitchMessageLength = 500
	// MaxDiscordButtonsPerRow is Discord's component row limit
	MaxDiscordButtonsPerRow = 5
	// MaxTelegramButtonsPerRow is Telegram's inline keyboard row limit
	MaxTelegramButtonsPerRow = 8
)

// Event channel sizing
const (
	// EventChannelBufferSize is the buffer size for the inbound event channel
	EventChannelBufferSize = 100
)

// Token masking
const (
	// MinSecretLengthForMasking is the minimum secret length to apply masking
	MinSecretLengthForMasking = 10
	// SecretMaskPrefixLength is the length of prefix to show before masking
	SecretMaskPrefixLength = 4
	// SecretMaskSuffixLength is the length of suffix to show after masking
	SecretMaskSuffixLength = 4
)
