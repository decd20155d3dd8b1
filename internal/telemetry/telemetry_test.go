package telemetry

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestNewStationDefaults(t *testing.T) {
	s := NewStation("alpha", 0, 0)
	if s.HWVersion != 1 {
		t.Errorf("HWVersion = %d, want default 1", s.HWVersion)
	}
	if s.SWVersion != 1 {
		t.Errorf("SWVersion = %d, want default 1", s.SWVersion)
	}
	if s.Token != "alpha" {
		t.Errorf("Token = %q, want %q", s.Token, "alpha")
	}
	if s.UID == "" {
		t.Error("UID is empty, want a generated identifier")
	}
}

func TestNewStationExplicitVersions(t *testing.T) {
	s := NewStation("alpha", 3, 7)
	if s.HWVersion != 3 || s.SWVersion != 7 {
		t.Errorf("versions = (%d, %d), want (3, 7)", s.HWVersion, s.SWVersion)
	}
}

func TestNewStationUniqueUIDs(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		uid := NewStation("alpha", 1, 1).UID
		if seen[uid] {
			t.Fatalf("duplicate UID %q", uid)
		}
		seen[uid] = true
	}
}

func TestStationUpdateApply(t *testing.T) {
	base := func() *Station {
		return &Station{
			Token:      "alpha",
			HWVersion:  2,
			SWVersion:  3,
			LastOnline: time.Unix(1000, 0),
		}
	}
	hw, sw := 5, 6
	seen := time.Unix(2000, 0)

	tests := []struct {
		name   string
		update StationUpdate
		want   *Station
	}{
		{
			name:   "empty update changes nothing",
			update: StationUpdate{},
			want:   base(),
		},
		{
			name:   "hardware only",
			update: StationUpdate{HWVersion: &hw},
			want:   &Station{Token: "alpha", HWVersion: 5, SWVersion: 3, LastOnline: time.Unix(1000, 0)},
		},
		{
			name:   "software only",
			update: StationUpdate{SWVersion: &sw},
			want:   &Station{Token: "alpha", HWVersion: 2, SWVersion: 6, LastOnline: time.Unix(1000, 0)},
		},
		{
			name:   "last online only",
			update: StationUpdate{LastOnline: &seen},
			want:   &Station{Token: "alpha", HWVersion: 2, SWVersion: 3, LastOnline: seen},
		},
		{
			name:   "all fields",
			update: StationUpdate{HWVersion: &hw, SWVersion: &sw, LastOnline: &seen},
			want:   &Station{Token: "alpha", HWVersion: 5, SWVersion: 6, LastOnline: seen},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.update.Apply(s)
			if diff := cmp.Diff(tt.want, s); diff != "" {
				t.Errorf("Apply mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
