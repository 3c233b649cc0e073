package osm

import (
	"testing"

	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTraversable(t *testing.T) {
	tests := []struct {
		name    string
		tags    osm.Tags
		profile Profile
		want    bool
	}{
		{
			name:    "residential road",
			tags:    osm.Tags{{Key: "highway", Value: "residential"}},
			profile: ProfileVehicle,
			want:    true,
		},
		{
			name:    "footway for vehicles",
			tags:    osm.Tags{{Key: "highway", Value: "footway"}},
			profile: ProfileVehicle,
			want:    false,
		},
		{
			name:    "footway for walkers",
			tags:    osm.Tags{{Key: "highway", Value: "footway"}},
			profile: ProfileWalk,
			want:    true,
		},
		{
			name:    "motorway for walkers",
			tags:    osm.Tags{{Key: "highway", Value: "motorway"}},
			profile: ProfileWalk,
			want:    false,
		},
		{
			name: "private access",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "access", Value: "private"},
			},
			profile: ProfileVehicle,
			want:    false,
		},
		{
			name: "foot=no",
			tags: osm.Tags{
				{Key: "highway", Value: "service"},
				{Key: "foot", Value: "no"},
			},
			profile: ProfileWalk,
			want:    false,
		},
		{
			name: "motor_vehicle=no",
			tags: osm.Tags{
				{Key: "highway", Value: "residential"},
				{Key: "motor_vehicle", Value: "no"},
			},
			profile: ProfileVehicle,
			want:    false,
		},
		{
			name: "area=yes (pedestrian plaza)",
			tags: osm.Tags{
				{Key: "highway", Value: "service"},
				{Key: "area", Value: "yes"},
			},
			profile: ProfileVehicle,
			want:    false,
		},
		{
			name:    "no highway tag",
			tags:    osm.Tags{{Key: "name", Value: "Some Street"}},
			profile: ProfileWalk,
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isTraversable(tt.tags, tt.profile))
		})
	}
}

func TestParseProfile(t *testing.T) {
	p, err := ParseProfile("walk")
	require.NoError(t, err)
	assert.Equal(t, ProfileWalk, p)

	p, err = ParseProfile("")
	require.NoError(t, err)
	assert.Equal(t, ProfileVehicle, p)

	_, err = ParseProfile("boat")
	assert.Error(t, err)
}

func TestBuildLinks(t *testing.T) {
	ways := [][]osm.NodeID{
		{1, 2, 2, 3}, // repeated node yields no self-loop
		{3, 9},       // 9 has no coordinates
		{4, 5},       // outside bbox
	}
	lat := map[osm.NodeID]float64{1: 1.30, 2: 1.31, 3: 1.32, 4: 5.0, 5: 5.1}
	lon := map[osm.NodeID]float64{1: 103.8, 2: 103.8, 3: 103.8, 4: 100.0, 5: 100.0}
	bbox := BBox{MinLat: 1.0, MaxLat: 2.0, MinLng: 103.0, MaxLng: 104.0}

	links, skipped, filtered := buildLinks(ways, lat, lon, bbox, true)

	assert.Equal(t, []RawLink{{From: 1, To: 2}, {From: 2, To: 3}}, links)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 1, filtered)
}

func TestBBoxContains(t *testing.T) {
	b := BBox{MinLat: 1.15, MaxLat: 1.48, MinLng: 103.6, MaxLng: 104.1}
	assert.False(t, b.IsZero())
	assert.True(t, b.Contains(1.3, 103.8))
	assert.False(t, b.Contains(1.5, 103.8))
	assert.True(t, BBox{}.IsZero())
}
