package transcoder

import (
	"math"
	"testing"
)

func TestParseISO6709(t *testing.T) {
	tests := []struct {
		in       string
		lat, lon float64
		wantErr  bool
	}{
		{in: "+37.7858-122.4064+012.345/", lat: 37.7858, lon: -122.4064},
		{in: "-33.8678+151.2100/", lat: -33.8678, lon: 151.21},
		{in: "+40.6894-074.0447/", lat: 40.6894, lon: -74.0447},
		{in: "+4041.364-07402.682/", lat: 40 + 41.364/60, lon: -(74 + 2.682/60)},
		{in: "+404122.2-0740208.5/", lat: 40 + 41.0/60 + 22.2/3600, lon: -(74 + 2.0/60 + 8.5/3600)},
		{in: "+35.6895+139.6917CRSWGS_84/", lat: 35.6895, lon: 139.6917},
		{in: " +01.5+002.5/ ", lat: 1.5, lon: 2.5},
		{in: "", wantErr: true},
		{in: "+37.7858/", wantErr: true},
		{in: "+3.7-122.4/", wantErr: true},
		{in: "+95.0000+010.0000/", wantErr: true},
		{in: "+4070.000-07402.682/", wantErr: true},
		{in: "+4a.0000-074.0000/", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lat, lon, err := ParseISO6709(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseISO6709(%q) = %v, %v; want error", tt.in, lat, lon)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseISO6709(%q): %v", tt.in, err)
			}
			if math.Abs(lat-tt.lat) > 1e-9 || math.Abs(lon-tt.lon) > 1e-9 {
				t.Errorf("ParseISO6709(%q) = %v, %v; want %v, %v", tt.in, lat, lon, tt.lat, tt.lon)
			}
		})
	}
}
