package constants

import "testing"

func TestSpilloverMode_Valid(t *testing.T) {
	tests := []struct {
		name string
		mode SpilloverMode
		want bool
	}{
		{
			name: "fixed is valid",
			mode: SpilloverFixed,
			want: true,
		},
		{
			name: "neighbor is valid",
			mode: SpilloverNeighbor,
			want: true,
		},
		{
			name: "empty string is invalid",
			mode: SpilloverMode(""),
			want: false,
		},
		{
			name: "arbitrary string is invalid",
			mode: SpilloverMode("cascade"),
			want: false,
		},
		{
			name: "FIXED uppercase is invalid",
			mode: SpilloverMode("FIXED"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.mode.Valid(); got != tt.want {
				t.Errorf("SpilloverMode(%q).Valid() = %v, want %v", tt.mode, got, tt.want)
			}
		})
	}
}

func TestSpilloverMode_String(t *testing.T) {
	if got := SpilloverNeighbor.String(); got != "neighbor" {
		t.Errorf("String() = %q, want %q", got, "neighbor")
	}
}
