package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
)

func TestProjectionDistances(t *testing.T) {
	tests := []struct {
		name             string
		lat1, lon1       float64
		lat2, lon2       float64
		tolerancePercent float64
	}{
		{
			name: "Raffles Place to Marina Bay (~1 km)",
			lat1: 1.2830, lon1: 103.8513,
			lat2: 1.2816, lon2: 103.8636,
			tolerancePercent: 0.5,
		},
		{
			name: "Short distance (~100m)",
			lat1: 1.3521, lon1: 103.8198,
			lat2: 1.3530, lon2: 103.8198,
			tolerancePercent: 0.5,
		},
		{
			name: "Mid latitude (~5 km)",
			lat1: 51.5074, lon1: -0.1278,
			lat2: 51.5300, lon2: -0.0700,
			tolerancePercent: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := CenteredOn([]float64{tt.lat1, tt.lat2}, []float64{tt.lon1, tt.lon2})
			a := p.ToPlanar(tt.lat1, tt.lon1)
			b := p.ToPlanar(tt.lat2, tt.lon2)

			got := planar.Distance(a, b)
			want := orbgeo.DistanceHaversine(orb.Point{tt.lon1, tt.lat1}, orb.Point{tt.lon2, tt.lat2})
			diff := math.Abs(got-want) / want * 100
			if diff > tt.tolerancePercent {
				t.Errorf("planar = %f m, haversine = %f m (diff %.2f%%)", got, want, diff)
			}
		})
	}
}

func TestProjectionOrigin(t *testing.T) {
	p := NewProjection(1.3, 103.8)
	pt := p.ToPlanar(1.3, 103.8)
	if pt[0] != 0 || pt[1] != 0 {
		t.Errorf("origin projects to %v, want (0, 0)", pt)
	}
}

func TestProjectionInverse(t *testing.T) {
	p := NewProjection(1.3, 103.8)
	lat, lon := p.ToLatLng(p.ToPlanar(1.35, 103.9))
	if math.Abs(lat-1.35) > 1e-9 || math.Abs(lon-103.9) > 1e-9 {
		t.Errorf("round trip = (%f, %f), want (1.35, 103.9)", lat, lon)
	}
}

func TestCenteredOnEmpty(t *testing.T) {
	p := CenteredOn(nil, nil)
	if p.originLat != 0 || p.originLon != 0 {
		t.Errorf("empty input origin = (%f, %f), want (0, 0)", p.originLat, p.originLon)
	}
}

func BenchmarkToPlanar(b *testing.B) {
	p := NewProjection(1.3521, 103.8198)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p.ToPlanar(1.2905, 103.8520)
	}
}
