package catalog

import "testing"

func TestLoad(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Classes) != 5 {
		t.Fatalf("classes = %d, want 5", len(c.Classes))
	}
	if len(c.Teachers) != 3 {
		t.Fatalf("teachers = %d, want 3", len(c.Teachers))
	}

	cl, ok := c.FindClass("Hatha Yoga")
	if !ok {
		t.Fatalf("Hatha Yoga not found")
	}
	if cl.Teacher != "Blanca Bear" {
		t.Errorf("teacher = %q, want Blanca Bear", cl.Teacher)
	}
}

func TestIsScheduledSlot(t *testing.T) {
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name      string
		className string
		date      string
		time      string
		want      bool
	}{
		// 2024-06-04 is a Tuesday
		{"hatha tuesday evening", "Hatha Yoga", "2024-06-04", "19:30", true},
		{"hatha tuesday wrong time", "Hatha Yoga", "2024-06-04", "10:00", false},
		// 2024-06-05 is a Wednesday
		{"hatha wednesday", "Hatha Yoga", "2024-06-05", "19:30", false},
		{"restorative tuesday morning", "Yoga Restaurativo", "2024-06-04", "10:00", true},
		// 2024-06-08 is a Saturday: sound healing only at 10:00 that day
		{"sound healing saturday override", "Sound Healing", "2024-06-08", "10:00", true},
		{"sound healing saturday excluded slot", "Sound Healing", "2024-06-08", "08:00", false},
		// 2024-06-09 is a Sunday: both slots run
		{"sound healing sunday early", "Sound Healing", "2024-06-09", "08:00", true},
		{"unknown class", "Pilates", "2024-06-04", "10:00", false},
		{"malformed date", "Hatha Yoga", "junk", "19:30", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.IsScheduledSlot(tt.className, tt.date, tt.time); got != tt.want {
				t.Errorf("IsScheduledSlot(%q, %q, %q) = %v, want %v",
					tt.className, tt.date, tt.time, got, tt.want)
			}
		})
	}
}
