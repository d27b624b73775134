package model

import (
	"hash/fnv"
	"strings"
	"time"

	"telegram-group-guard/internal/domain"
)

// IdentityKind distinguishes how a member was identified. Telegram issues
// positive numeric IDs; members confirmed only through a public handle (e.g.
// resolved from an administrator roster entry without a user object) carry a
// handle-only identity.
type IdentityKind int

const (
	IdentityNumeric IdentityKind = iota
	IdentityHandleOnly
)

// MemberIdentity is a tagged union over the two ways we can identify a group
// member. Exactly one of TelegramID/Handle is authoritative, selected by Kind.
type MemberIdentity struct {
	Kind       IdentityKind
	TelegramID int64
	Handle     string
}

func NumericIdentity(tgID int64) MemberIdentity {
	return MemberIdentity{Kind: IdentityNumeric, TelegramID: tgID}
}

func HandleOnlyIdentity(handle string) MemberIdentity {
	return MemberIdentity{Kind: IdentityHandleOnly, Handle: strings.ToLower(strings.TrimPrefix(handle, "@"))}
}

// StorageKey maps the identity onto the single int64 key column of the
// membership store. Handle-only identities hash to a negative key so they can
// never collide with real Telegram IDs, which are always positive.
func (id MemberIdentity) StorageKey() int64 {
	if id.Kind == IdentityNumeric {
		return id.TelegramID
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(id.Handle))
	k := int64(h.Sum64() &^ (1 << 63))
	if k == 0 {
		k = 1
	}
	return -k
}

// GroupMember is one membership record, unique per (GroupID, identity key).
// Verified means we hold positive evidence the user currently belongs to the
// group: an observed message, a join event, an administrator roster hit or a
// confirmed platform lookup.
type GroupMember struct {
	GroupID   int64
	Identity  MemberIdentity
	Handle    string // lowercase, "" when the user has no public handle
	FirstName string
	LastName  string
	Verified  bool
	UpdatedAt time.Time
}

func NewGroupMember(groupID int64, identity MemberIdentity, handle, firstName, lastName string, verified bool) (*GroupMember, error) {
	if groupID == 0 {
		return nil, domain.ErrInvalidArgument
	}
	if identity.Kind == IdentityHandleOnly && identity.Handle == "" {
		return nil, domain.ErrInvalidArgument
	}
	return &GroupMember{
		GroupID:   groupID,
		Identity:  identity,
		Handle:    strings.ToLower(strings.TrimPrefix(handle, "@")),
		FirstName: firstName,
		LastName:  lastName,
		Verified:  verified,
		UpdatedAt: time.Now(),
	}, nil
}

// DisplayName renders the member for user-facing warnings: @handle when one
// exists, otherwise the name parts.
func (m *GroupMember) DisplayName() string {
	if m.Handle != "" {
		return "@" + m.Handle
	}
	name := m.FirstName
	if m.LastName != "" {
		name += " " + m.LastName
	}
	if name == "" {
		name = "User"
	}
	return name
}
