package cli

import "testing"

func TestParseRoomRef(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"bare room ID", "amber-falcon-harbor", "amber-falcon-harbor", false},
		{"share link", "https://blt.owasp.org/call?room=amber-falcon-harbor", "amber-falcon-harbor", false},
		{"link with extra params", "https://blt.owasp.org/call?utm=x&room=coral-wren-mesa", "coral-wren-mesa", false},
		{"insecure link", "http://localhost:8080/call?room=dev-room-one", "dev-room-one", false},
		{"query without scheme", "call?room=jade-heron-cove", "jade-heron-cove", false},
		{"link missing room param", "https://blt.owasp.org/call?x=1", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRoomRef(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRoomRef(%q) = %q, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRoomRef(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("ParseRoomRef(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
