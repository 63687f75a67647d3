package service

import "testing"

func TestFormatSpanishDate(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"2024-06-04", "martes, 4 de junio de 2024"},
		{"2024-06-08", "sábado, 8 de junio de 2024"},
		{"2024-12-25", "miércoles, 25 de diciembre de 2024"},
		{"2025-01-01", "miércoles, 1 de enero de 2025"},
		{"not-a-date", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := FormatSpanishDate(tt.date); got != tt.want {
			t.Errorf("FormatSpanishDate(%q) = %q, want %q", tt.date, got, tt.want)
		}
	}
}
