package infra

import (
	"fmt"
	"os/user"
	"strconv"
	"strings"

	"github.com/eliteGoblin/focusd/cam_mon/internal/domain"
)

// OSIdentityResolver resolves "user:group" against the host account database.
type OSIdentityResolver struct {
	lookupUser  func(name string) (*user.User, error)
	lookupGroup func(name string) (*user.Group, error)
}

// NewOSIdentityResolver creates a resolver backed by os/user.
func NewOSIdentityResolver() *OSIdentityResolver {
	return &OSIdentityResolver{lookupUser: user.Lookup, lookupGroup: user.LookupGroup}
}

// Resolve accepts "user", "user:group", ":group" or numeric IDs in either half.
// Empty halves resolve to -1 (unchanged).
func (r *OSIdentityResolver) Resolve(userGroup string) (domain.Ownership, error) {
	owner := domain.NoOwnership
	userGroup = strings.TrimSpace(userGroup)
	if userGroup == "" {
		return owner, nil
	}

	userPart, groupPart, _ := strings.Cut(userGroup, ":")
	userPart = strings.TrimSpace(userPart)
	groupPart = strings.TrimSpace(groupPart)

	if userPart != "" {
		uid, err := r.resolveUser(userPart)
		if err != nil {
			return domain.NoOwnership, err
		}
		owner.UID = uid
	}
	if groupPart != "" {
		gid, err := r.resolveGroup(groupPart)
		if err != nil {
			return domain.NoOwnership, err
		}
		owner.GID = gid
	}
	return owner, nil
}

func (r *OSIdentityResolver) resolveUser(name string) (int, error) {
	if id, err := strconv.Atoi(name); err == nil {
		return numericID("user", id)
	}
	u, err := r.lookupUser(name)
	if err != nil {
		return -1, fmt.Errorf("lookup user %q: %w", name, err)
	}
	return strconv.Atoi(u.Uid)
}

func (r *OSIdentityResolver) resolveGroup(name string) (int, error) {
	if id, err := strconv.Atoi(name); err == nil {
		return numericID("group", id)
	}
	g, err := r.lookupGroup(name)
	if err != nil {
		return -1, fmt.Errorf("lookup group %q: %w", name, err)
	}
	return strconv.Atoi(g.Gid)
}

// numericID rejects negative IDs, which would otherwise mean "unchanged".
func numericID(kind string, id int) (int, error) {
	if id < 0 {
		return -1, fmt.Errorf("invalid %s id %d: must not be negative", kind, id)
	}
	return id, nil
}

// Ensure OSIdentityResolver implements domain.IdentityResolver.
var _ domain.IdentityResolver = (*OSIdentityResolver)(nil)
