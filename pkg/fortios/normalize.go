package fortios

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ddl-r-abdulaziz/netgraph/pkg/metrics"
)

// Undef is the value given to profile keys missing from a policy.
const Undef = "undef"

// Row keys set from the policy's key in the source mapping.
const (
	KeyID   = "_id"
	KeyName = "name"
)

// Profile is a versioned set of keys every normalized row carries.
type Profile struct {
	Name string
	Keys []string
	// NameFromID also sets the name key from the policy key.
	NameFromID bool
}

var (
	// ProfileFull is the current firewall policy table layout.
	ProfileFull = Profile{
		Name: "full",
		Keys: []string{
			"action", "comments", "dstaddr", "dstintf", "logtraffic", "name",
			"schedule", "service", "srcaddr", "srcintf", "status", "uuid",
		},
	}

	// ProfileLegacy is the earlier table layout without uuid, logtraffic
	// and schedule.
	ProfileLegacy = Profile{
		Name: "legacy",
		Keys: []string{
			"edit", "srcaddr", "srcintf", "dstaddr", "dstintf", "service",
			"status", "action", "comments", "srcaddrs", "dstaddrs",
		},
		NameFromID: true,
	}
)

// ProfileByName returns the profile with the given name. An empty name
// selects ProfileFull.
func ProfileByName(name string) (Profile, error) {
	switch name {
	case "", ProfileFull.Name:
		return ProfileFull, nil
	case ProfileLegacy.Name:
		return ProfileLegacy, nil
	default:
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}
}

// Row is a normalized policy record. Every profile key is present; keys the
// source policy carried beyond the profile are kept as well.
type Row struct {
	ID     string
	Fields map[string]string
}

// Get returns the value of key, or Undef when the row lacks it.
func (r Row) Get(key string) string {
	if v, ok := r.Fields[key]; ok {
		return v
	}
	if key == KeyID {
		return r.ID
	}
	return Undef
}

// Keys returns the row keys in sorted order, without _id.
func (r Row) Keys() []string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MarshalJSON encodes the row as a flat object including _id.
func (r Row) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(r.Fields)+1)
	for k, v := range r.Fields {
		out[k] = v
	}
	out[KeyID] = r.ID
	return json.Marshal(out)
}

// Normalize converts a policy mapping (policy key to settings) into rows
// holding every key of profile. Missing keys become Undef and list values
// are joined with a space. Rows are ordered by policy key, numerically when
// both keys are numbers.
func Normalize(policies map[string]Entry, profile Profile) []Row {
	ids := make([]string, 0, len(policies))
	for id := range policies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return lessID(ids[i], ids[j]) })

	rows := make([]Row, 0, len(ids))
	for _, id := range ids {
		rows = append(rows, normalizeOne(id, policies[id], profile))
	}
	metrics.PolicyRows.WithLabelValues(profile.Name).Add(float64(len(rows)))
	return rows
}

func normalizeOne(id string, policy Entry, profile Profile) Row {
	row := Row{ID: id, Fields: make(map[string]string, len(profile.Keys)+len(policy))}
	for k, v := range policy {
		row.Fields[k] = stringify(v)
	}
	for _, k := range profile.Keys {
		if _, ok := row.Fields[k]; !ok {
			row.Fields[k] = Undef
		}
	}
	if profile.NameFromID {
		row.Fields[KeyName] = id
	}
	delete(row.Fields, KeyID)
	return row
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return Undef
	case string:
		return val
	case []string:
		return strings.Join(val, " ")
	case []any:
		parts := make([]string, len(val))
		for i, p := range val {
			parts[i] = stringify(p)
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprint(val)
	}
}

func lessID(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

// Search returns the rows having a field word equal to term, such as an
// address object name in srcaddr or dstaddr.
func Search(rows []Row, term string) []Row {
	var out []Row
	for _, r := range rows {
		if r.ID == term || rowHasWord(r, term) {
			out = append(out, r)
		}
	}
	return out
}

func rowHasWord(r Row, term string) bool {
	for _, v := range r.Fields {
		for _, w := range strings.Fields(v) {
			if w == term {
				return true
			}
		}
	}
	return false
}
