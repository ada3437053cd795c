package video

import "testing"

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Never Gonna Give You Up - YouTube", "Never Gonna Give You Up"},
		{"  Padded - YouTube  ", "Padded"},
		{"No suffix here", "No suffix here"},
		{"YouTube - YouTube Rewind - YouTube", "YouTube - YouTube Rewind"},
		{"", UnknownVideo},
		{" - YouTube", UnknownVideo},
	}
	for _, tt := range tests {
		if got := CleanTitle(tt.in); got != tt.want {
			t.Errorf("CleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
