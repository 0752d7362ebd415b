package rbac

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

var (
	ErrLocked              = errors.New("account is locked")
	ErrIPNotAllowed        = errors.New("ip address not allowed")
	ErrOutsideAccessWindow = errors.New("outside allowed access hours")
	ErrPermissionDenied    = errors.New("insufficient permissions")
)

// TemporaryGrant confers Permission until ExpiresAt.
type TemporaryGrant struct {
	Permission string
	ExpiresAt  time.Time
}

// Subject is the authorization view of a principal.
type Subject struct {
	Role                 Role
	Permissions          []string
	CustomPermissions    []string
	DeniedPermissions    []string
	TemporaryPermissions []TemporaryGrant

	AllowedIPs      []string
	AccessStartTime string // HH:MM
	AccessEndTime   string // HH:MM
	LockedUntil     *time.Time
}

// Requirement lists the permissions a route needs. All of them must be held
// unless Any is set.
type Requirement struct {
	Permissions []string
	Any         bool
}

func AllOf(perms ...string) Requirement {
	return Requirement{Permissions: perms}
}

func AnyOf(perms ...string) Requirement {
	return Requirement{Permissions: perms, Any: true}
}

func (r Requirement) String() string {
	sep := " AND "
	if r.Any {
		sep = " OR "
	}
	return strings.Join(r.Permissions, sep)
}

// Resolver computes effective permissions and evaluates access constraints.
// Nothing is cached: every call reflects the subject passed in and the clock.
type Resolver struct {
	table *RoleTable
	now   func() time.Time
}

func NewResolver(table *RoleTable) *Resolver {
	return &Resolver{table: table, now: time.Now}
}

// WithClock returns a copy of the resolver that reads time from now.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	return &Resolver{table: r.table, now: now}
}

func (r *Resolver) Table() *RoleTable {
	return r.table
}

// EffectivePermissions is the role grants plus direct, custom and unexpired
// temporary grants, minus denials. FullAccess survives denial. Unknown
// permission strings are dropped.
func (r *Resolver) EffectivePermissions(s Subject) PermissionSet {
	set := r.table.Permissions(s.Role)
	set.Add(s.Permissions...)
	set.Add(s.CustomPermissions...)

	now := r.now()
	for _, tp := range s.TemporaryPermissions {
		if tp.ExpiresAt.After(now) {
			set.Add(tp.Permission)
		}
	}

	universal := set.Has(FullAccess)
	set.Remove(s.DeniedPermissions...)
	if universal {
		set.Add(FullAccess)
	}

	for p := range set {
		if !r.table.IsKnown(p) {
			delete(set, p)
		}
	}
	return set
}

func (r *Resolver) HasPermission(s Subject, perm string) bool {
	set := r.EffectivePermissions(s)
	return set.Has(FullAccess) || set.Has(perm)
}

// HasAny is false for an empty list.
func (r *Resolver) HasAny(s Subject, perms []string) bool {
	set := r.EffectivePermissions(s)
	if set.Has(FullAccess) && len(perms) > 0 {
		return true
	}
	for _, p := range perms {
		if set.Has(p) {
			return true
		}
	}
	return false
}

// HasAll is true for an empty list.
func (r *Resolver) HasAll(s Subject, perms []string) bool {
	set := r.EffectivePermissions(s)
	if set.Has(FullAccess) {
		return true
	}
	for _, p := range perms {
		if !set.Has(p) {
			return false
		}
	}
	return true
}

// CheckLockout denies while LockedUntil is in the future.
func (r *Resolver) CheckLockout(s Subject) error {
	if s.LockedUntil != nil && s.LockedUntil.After(r.now()) {
		return ErrLocked
	}
	return nil
}

// CheckIP requires ip to be in AllowedIPs when the list is non-empty.
func (r *Resolver) CheckIP(s Subject, ip string) error {
	if len(s.AllowedIPs) == 0 {
		return nil
	}
	caller := net.ParseIP(strings.TrimSpace(ip))
	for _, allowed := range s.AllowedIPs {
		allowed = strings.TrimSpace(allowed)
		if parsed := net.ParseIP(allowed); parsed != nil && caller != nil {
			if parsed.Equal(caller) {
				return nil
			}
			continue
		}
		if allowed == ip {
			return nil
		}
	}
	return ErrIPNotAllowed
}

// CheckTimeWindow requires the current time of day to fall inside
// [AccessStartTime, AccessEndTime], both ends inclusive. A window whose start
// is later than its end spans midnight. A missing bound is open.
func (r *Resolver) CheckTimeWindow(s Subject) error {
	if s.AccessStartTime == "" && s.AccessEndTime == "" {
		return nil
	}

	start, end := 0, 23*60+59
	var err error
	if s.AccessStartTime != "" {
		if start, err = minuteOfDay(s.AccessStartTime); err != nil {
			return fmt.Errorf("%w: %v", ErrOutsideAccessWindow, err)
		}
	}
	if s.AccessEndTime != "" {
		if end, err = minuteOfDay(s.AccessEndTime); err != nil {
			return fmt.Errorf("%w: %v", ErrOutsideAccessWindow, err)
		}
	}

	now := r.now()
	current := now.Hour()*60 + now.Minute()

	inside := start <= current && current <= end
	if start > end {
		inside = current >= start || current <= end
	}
	if !inside {
		return ErrOutsideAccessWindow
	}
	return nil
}

// Authorize runs lockout, IP, time-window and permission checks in that order
// and returns the first failure.
func (r *Resolver) Authorize(s Subject, req Requirement, ip string) error {
	if err := r.CheckLockout(s); err != nil {
		return err
	}
	if err := r.CheckIP(s, ip); err != nil {
		return err
	}
	if err := r.CheckTimeWindow(s); err != nil {
		return err
	}

	if len(req.Permissions) == 0 {
		return nil
	}

	ok := r.HasAll(s, req.Permissions)
	if req.Any {
		ok = r.HasAny(s, req.Permissions)
	}
	if !ok {
		return fmt.Errorf("%w: requires %s", ErrPermissionDenied, req)
	}
	return nil
}

// ValidateTimeOfDay reports whether v is a valid HH:MM value.
func ValidateTimeOfDay(v string) error {
	_, err := minuteOfDay(v)
	return err
}

func minuteOfDay(v string) (int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q", v)
	}
	return t.Hour()*60 + t.Minute(), nil
}
