package fortios

import (
	"encoding/json"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFillsMissingKeys(t *testing.T) {
	rows := Normalize(map[string]Entry{"1": {"srcaddr": "1.2.3.0/24"}}, ProfileFull)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "1", row.ID)
	assert.Len(t, row.Fields, 12)
	for _, k := range ProfileFull.Keys {
		if k == "srcaddr" {
			assert.Equal(t, "1.2.3.0/24", row.Get(k))
			continue
		}
		assert.Equal(t, Undef, row.Get(k), k)
	}
}

func TestNormalizeLegacy(t *testing.T) {
	rows := Normalize(map[string]Entry{
		"7": {"srcaddr": []string{"lan", "dmz"}, "name": "ignored", "action": "accept"},
	}, ProfileLegacy)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "7", row.Get(KeyID))
	assert.Equal(t, "7", row.Get(KeyName))
	assert.Equal(t, "lan dmz", row.Get("srcaddr"))
	assert.Equal(t, "accept", row.Get("action"))
	assert.Equal(t, Undef, row.Get("srcaddrs"))
	assert.Equal(t, Undef, row.Get("edit"))
	_, hasUUID := row.Fields["uuid"]
	assert.False(t, hasUUID)
}

func TestNormalizeValues(t *testing.T) {
	rows := Normalize(map[string]Entry{
		"1": {
			"service":  []any{"HTTP", "DNS"},
			"priority": 5.0,
			"comments": nil,
		},
	}, ProfileFull)
	require.Len(t, rows, 1)
	assert.Equal(t, "HTTP DNS", rows[0].Get("service"))
	assert.Equal(t, "5", rows[0].Get("priority"))
	assert.Equal(t, Undef, rows[0].Get("comments"))
}

func TestNormalizeOrder(t *testing.T) {
	rows := Normalize(map[string]Entry{"10": {}, "2": {}, "b": {}, "1": {}, "a": {}}, ProfileFull)
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"1", "2", "10", "a", "b"}, ids)
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	policy := Entry{"srcaddr": "lan"}
	Normalize(map[string]Entry{"1": policy}, ProfileLegacy)
	assert.Equal(t, Entry{"srcaddr": "lan"}, policy)
}

func TestRowJSON(t *testing.T) {
	rows := Normalize(map[string]Entry{"3": {"srcaddr": "lan"}}, ProfileFull)
	data, err := json.Marshal(rows[0])
	require.NoError(t, err)

	var got map[string]string
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "3", got["_id"])
	assert.Equal(t, "lan", got["srcaddr"])
	assert.Equal(t, Undef, got["uuid"])
	assert.Len(t, got, 13)
}

func TestPoliciesFromConfig(t *testing.T) {
	c := loadFixture(t)
	rows, err := c.Policies(ProfileFull)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "2", rows[0].ID)
	assert.Equal(t, "deny", rows[0].Get("action"))
	assert.Equal(t, Undef, rows[0].Get("logtraffic"))
	assert.Equal(t, "HTTP HTTPS DNS", rows[1].Get("service"))

	hits := Search(rows, "dmz web")
	assert.Empty(t, hits, "search matches whole words")
	hits = Search(rows, "lan")
	require.Len(t, hits, 2)
	hits = Search(rows, "wan1")
	require.Len(t, hits, 1)
	assert.Equal(t, "10", hits[0].ID)
}

func TestProfileByName(t *testing.T) {
	p, err := ProfileByName("")
	require.NoError(t, err)
	assert.Equal(t, ProfileFull.Name, p.Name)

	p, err = ProfileByName("legacy")
	require.NoError(t, err)
	assert.True(t, p.NameFromID)

	_, err = ProfileByName("v3")
	assert.ErrorIs(t, err, ErrUnknownProfile)
}

var candidateKeys = []string{"srcaddr", "dstaddr", "action", "name", "uuid", "edit", "extra", "_id"}

// TestNormalizeProperty checks that every row carries every profile key and
// keeps the values it was given.
func TestNormalizeProperty(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	for _, profile := range []Profile{ProfileFull, ProfileLegacy} {
		profile := profile
		properties.Property(profile.Name+" rows hold every key", prop.ForAll(
			func(mask uint8, value string) bool {
				present := make(map[string]string)
				for i, k := range candidateKeys {
					if mask&(1<<i) != 0 {
						present[k] = value + k
					}
				}
				policy := Entry{}
				for k, v := range present {
					policy[k] = v
				}
				rows := Normalize(map[string]Entry{"1": policy}, profile)
				if len(rows) != 1 {
					return false
				}
				for _, k := range profile.Keys {
					if _, ok := rows[0].Fields[k]; !ok {
						return false
					}
				}
				for k, v := range present {
					if k == KeyID || (k == KeyName && profile.NameFromID) {
						continue
					}
					if rows[0].Fields[k] != v {
						return false
					}
				}
				return true
			},
			gen.UInt8(),
			gen.AlphaString(),
		))
	}

	properties.TestingRun(t)
}
