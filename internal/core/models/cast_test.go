package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCastListScanMixedShapes(t *testing.T) {
	var c CastList
	err := c.Scan([]byte(`["Keanu Reeves", {"name": "Carrie-Anne Moss", "character": "Trinity", "photo": "https://img/t.jpg"}]`))
	require.NoError(t, err)
	require.Len(t, c, 2)
	assert.Equal(t, CastMember{Name: "Keanu Reeves"}, c[0])
	assert.Equal(t, "Trinity", c[1].Character)
}

func TestCastListScanNull(t *testing.T) {
	c := CastList{{Name: "x"}}
	require.NoError(t, c.Scan(nil))
	assert.Nil(t, c)
}

func TestCastListScanRejectsUnknownSource(t *testing.T) {
	var c CastList
	assert.Error(t, c.Scan(42))
}

func TestCastMemberMarshalKeepsShape(t *testing.T) {
	out, err := json.Marshal(CastList{{Name: "Neo"}, {Name: "Morpheus", Character: "Captain"}})
	require.NoError(t, err)
	assert.JSONEq(t, `["Neo", {"name": "Morpheus", "character": "Captain"}]`, string(out))
}

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"", "", true},
		{"MOVIE", KindMovie, true},
		{"filme", KindMovie, true},
		{"SERIE", KindSeriesEpisode, true},
		{"series_episode", KindSeriesEpisode, true},
		{"documentary", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseKind(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestSeriesKeyFallsBackToName(t *testing.T) {
	empty := ""
	named := "Dark"
	assert.Equal(t, "Dark", Content{Name: "Episode 1", SeriesName: &named}.SeriesKey())
	assert.Equal(t, "Episode 1", Content{Name: "Episode 1", SeriesName: &empty}.SeriesKey())
	assert.Equal(t, "Episode 1", Content{Name: "Episode 1"}.SeriesKey())
}
