package rules

import (
	"strings"
	"time"

	"gamehub-backend/internal/domain"
)

// PropFieldPrefix marks a rule field as a dynamic property lookup; the
// remainder of the field is the property key.
const PropFieldPrefix = "props."

// Core attribute names accepted in rule fields. Anything outside this
// set that is not a props.* path is rejected at validation time.
const (
	FieldLastSeenAt = "lastSeenAt"
	FieldCreatedAt  = "createdAt"
	FieldDevBuild   = "devBuild"
)

// IsPropField reports whether field addresses a dynamic property.
func IsPropField(field string) bool {
	return strings.HasPrefix(field, PropFieldPrefix)
}

// PropKey returns the property key addressed by a props.* field.
func PropKey(field string) string {
	return strings.TrimPrefix(field, PropFieldPrefix)
}

// KnownField reports whether field is resolvable at all: either a
// props.* path with a non-empty key or one of the core attributes.
func KnownField(field string) bool {
	if IsPropField(field) {
		return PropKey(field) != ""
	}
	switch field {
	case FieldLastSeenAt, FieldCreatedAt, FieldDevBuild:
		return true
	}
	return false
}

// Resolve maps a rule field to the player's current value for it. The
// second return is false when the attribute is not present, which is
// distinct from an empty string value. Core timestamps render as
// RFC 3339; devBuild renders as "1"/"0", matching the convention for
// boolean property values.
func Resolve(p *domain.Player, field string) (string, bool) {
	if IsPropField(field) {
		v, ok := p.Props[PropKey(field)]
		return v, ok
	}
	switch field {
	case FieldLastSeenAt:
		return p.LastSeenAt.UTC().Format(time.RFC3339), true
	case FieldCreatedAt:
		return p.CreatedAt.UTC().Format(time.RFC3339), true
	case FieldDevBuild:
		if p.DevBuild {
			return "1", true
		}
		return "0", true
	}
	return "", false
}
