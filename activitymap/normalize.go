package activitymap

import (
	"strings"
	"time"

	"github.com/google/uuid"

	auth "github.com/goliatone/go-cms-auth"
)

const (
	// MetadataKeyIPAddress stores the request origin address.
	MetadataKeyIPAddress = "ip_address"
	// MetadataKeyUserAgent stores the request user agent.
	MetadataKeyUserAgent = "user_agent"
	// MetadataKeyDescription stores the human readable entry description.
	MetadataKeyDescription = "description"
)

const (
	defaultChannel    = "auth"
	defaultObjectType = "identity"
	defaultActorID    = "anonymous"
)

// Normalized is a transport-agnostic activity shape for downstream feeds.
type Normalized struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization behavior.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel       string
	objectType    string
	actorFallback string
	now           func() time.Time
}

// Normalize converts a persisted auth.ActivityEntry into the feed shape.
// Failed logins against unknown emails carry no identity, they are attributed
// to the actor fallback and keep the attempted email as object id.
func Normalize(entry auth.ActivityEntry, opts ...Option) Normalized {
	options := defaultNormalizeOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	identityID := strings.TrimSpace(entry.IdentityID)

	occurredAt := entry.CreatedAt
	if occurredAt.IsZero() {
		occurredAt = options.now()
	}

	var id string
	if entry.ID != uuid.Nil {
		id = entry.ID.String()
	}

	return Normalized{
		ID:         id,
		ActorID:    firstNonEmpty(identityID, options.actorFallback),
		Verb:       string(entry.Action),
		ObjectType: options.objectType,
		ObjectID:   firstNonEmpty(identityID, metadataString(entry.Metadata, "email")),
		Channel:    options.channel,
		Metadata:   normalizeMetadata(entry),
		OccurredAt: occurredAt.UTC(),
	}
}

// NormalizeAll maps a history slice preserving its order.
func NormalizeAll(entries []auth.ActivityEntry, opts ...Option) []Normalized {
	out := make([]Normalized, 0, len(entries))
	for _, entry := range entries {
		out = append(out, Normalize(entry, opts...))
	}
	return out
}

// WithDefaultChannel sets the default channel for normalized records.
func WithDefaultChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		opts.channel = strings.TrimSpace(channel)
	}
}

// WithDefaultObjectType sets the default object type for normalized records.
func WithDefaultObjectType(objectType string) Option {
	return func(opts *normalizeOptions) {
		opts.objectType = strings.TrimSpace(objectType)
	}
}

// WithActorFallback sets the actor id used when an entry has no identity.
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

// WithClock stamps entries lacking a creation time.
func WithClock(now func() time.Time) Option {
	return func(opts *normalizeOptions) {
		if now != nil {
			opts.now = now
		}
	}
}

func defaultNormalizeOptions() normalizeOptions {
	return normalizeOptions{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
		now:           time.Now,
	}
}

func normalizeMetadata(entry auth.ActivityEntry) map[string]any {
	metadata := cloneMap(entry.Metadata)

	set := func(key, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		if metadata == nil {
			metadata = map[string]any{}
		}
		if _, exists := metadata[key]; !exists {
			metadata[key] = value
		}
	}

	set(MetadataKeyIPAddress, entry.IPAddress)
	set(MetadataKeyUserAgent, entry.UserAgent)
	set(MetadataKeyDescription, entry.Description)

	return metadata
}

func metadataString(metadata map[string]any, key string) string {
	if value, ok := metadata[key].(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
