package dateutil

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	kyiv, err := time.LoadLocation("Europe/Kyiv")
	if err != nil {
		t.Skipf("tz database unavailable: %v", err)
	}

	got, err := ParseDate("2025-01-15", kyiv)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 1, 15, 0, 0, 0, 0, kyiv)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := ParseDate("01-15-2025", time.UTC); !errors.Is(err, ErrInvalidDateFormat) {
		t.Errorf("got error %v, want %v", err, ErrInvalidDateFormat)
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input    string
		wantHour int
		wantMin  int
		wantErr  bool
	}{
		{"09:30", 9, 30, false},
		{"9:05", 9, 5, false},
		{"23:59", 23, 59, false},
		{"00:00", 0, 0, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"1230", 0, 0, true},
		{"ab:cd", 0, 0, true},
		{"", 0, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			h, m, err := ParseClock(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidClockFormat) {
					t.Errorf("expected ErrInvalidClockFormat, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h != tc.wantHour || m != tc.wantMin {
				t.Errorf("expected %02d:%02d, got %02d:%02d", tc.wantHour, tc.wantMin, h, m)
			}
		})
	}
}

func TestParseDateTime(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"rfc3339 with offset", "2025-03-10T10:00:00Z", time.Date(2025, 3, 10, 12, 0, 0, 0, loc)},
		{"local seconds", "2025-03-10T10:00:00", time.Date(2025, 3, 10, 10, 0, 0, 0, loc)},
		{"local minutes", "2025-03-10T10:00", time.Date(2025, 3, 10, 10, 0, 0, 0, loc)},
		{"space separated", "2025-03-10 10:00", time.Date(2025, 3, 10, 10, 0, 0, 0, loc)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDateTime(tc.input, loc)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}

	if _, err := ParseDateTime("next tuesday", loc); !errors.Is(err, ErrInvalidDateTimeFormat) {
		t.Errorf("expected ErrInvalidDateTimeFormat, got %v", err)
	}
}

func TestAtAndSameDay(t *testing.T) {
	day := time.Date(2025, 1, 6, 15, 45, 0, 0, time.UTC)

	got := At(day, 9, 30)
	want := time.Date(2025, 1, 6, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("expected %v, got %v", want, got)
	}

	midnight := At(day, 24, 0)
	if !midnight.Equal(time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("expected hour 24 to roll to next day, got %v", midnight)
	}

	if !SameDay(day, want) {
		t.Error("expected same day")
	}
	if SameDay(day, midnight) {
		t.Error("expected different days")
	}
}

func TestTruncateToDay(t *testing.T) {
	input := time.Date(2025, 1, 15, 14, 30, 45, 123456789, time.UTC)
	got := TruncateToDay(input)
	want := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseRelativeDate(t *testing.T) {
	// Reference date: Friday, January 10, 2025
	friday := time.Date(2025, 1, 10, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		input      string
		relativeTo time.Time
		want       time.Time
		wantErr    error
	}{
		// Empty and today
		{
			name:       "empty returns today",
			input:      "",
			relativeTo: friday,
			want:       time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "today keyword",
			input:      "today",
			relativeTo: friday,
			want:       time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "TODAY uppercase",
			input:      "TODAY",
			relativeTo: friday,
			want:       time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		},

		// Tomorrow
		{
			name:       "tomorrow from friday",
			input:      "tomorrow",
			relativeTo: friday,
			want:       time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC), // Saturday
		},
		{
			name:       "TOMORROW uppercase",
			input:      "TOMORROW",
			relativeTo: friday,
			want:       time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC),
		},

		// Weekday names from Friday
		{
			name:       "saturday from friday",
			input:      "saturday",
			relativeTo: friday,
			want:       time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC), // +1 day
		},
		{
			name:       "sunday from friday",
			input:      "sunday",
			relativeTo: friday,
			want:       time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC), // +2 days
		},
		{
			name:       "monday from friday",
			input:      "monday",
			relativeTo: friday,
			want:       time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC), // +3 days
		},
		{
			name:       "tuesday from friday",
			input:      "tuesday",
			relativeTo: friday,
			want:       time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC), // +4 days
		},
		{
			name:       "wednesday from friday",
			input:      "wednesday",
			relativeTo: friday,
			want:       time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), // +5 days
		},
		{
			name:       "thursday from friday",
			input:      "thursday",
			relativeTo: friday,
			want:       time.Date(2025, 1, 16, 0, 0, 0, 0, time.UTC), // +6 days
		},
		{
			name:       "friday from friday returns next friday",
			input:      "friday",
			relativeTo: friday,
			want:       time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC), // +7 days
		},

		// Weekday names from Monday
		{
			name:       "monday from monday returns next monday",
			input:      "monday",
			relativeTo: time.Date(2025, 1, 13, 10, 0, 0, 0, time.UTC), // Monday
			want:       time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),  // +7 days
		},
		{
			name:       "tuesday from monday",
			input:      "tuesday",
			relativeTo: time.Date(2025, 1, 13, 10, 0, 0, 0, time.UTC), // Monday
			want:       time.Date(2025, 1, 14, 0, 0, 0, 0, time.UTC),  // +1 day
		},
		{
			name:       "sunday from monday",
			input:      "sunday",
			relativeTo: time.Date(2025, 1, 13, 10, 0, 0, 0, time.UTC), // Monday
			want:       time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC),  // +6 days
		},

		// Next-prefixed weekdays
		{
			name:       "next-monday from friday",
			input:      "next-monday",
			relativeTo: friday,
			want:       time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "next-friday from friday",
			input:      "next-friday",
			relativeTo: friday,
			want:       time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "next-saturday from friday",
			input:      "next-saturday",
			relativeTo: friday,
			want:       time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "NEXT-MONDAY uppercase",
			input:      "NEXT-MONDAY",
			relativeTo: friday,
			want:       time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
		},

		// Next-week
		{
			name:       "next-week from friday",
			input:      "next-week",
			relativeTo: friday,
			want:       time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC), // Same weekday +7
		},
		{
			name:       "next-week from monday",
			input:      "next-week",
			relativeTo: time.Date(2025, 1, 13, 10, 0, 0, 0, time.UTC),
			want:       time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "next-week from sunday",
			input:      "next-week",
			relativeTo: time.Date(2025, 1, 12, 10, 0, 0, 0, time.UTC),
			want:       time.Date(2025, 1, 19, 0, 0, 0, 0, time.UTC),
		},

		// Absolute dates
		{
			name:       "absolute date today",
			input:      "2025-01-10",
			relativeTo: friday,
			want:       time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "absolute date future",
			input:      "2025-01-15",
			relativeTo: friday,
			want:       time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "absolute date weekend",
			input:      "2025-01-11",
			relativeTo: friday,
			want:       time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name:       "absolute date far future",
			input:      "2030-12-31",
			relativeTo: friday,
			want:       time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC),
		},

		// Edge case: whitespace
		{
			name:       "input with whitespace",
			input:      "  monday  ",
			relativeTo: friday,
			want:       time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRelativeDate(tt.input, tt.relativeTo)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("got error %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseRelativeDate_Errors(t *testing.T) {
	friday := time.Date(2025, 1, 10, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:    "past absolute date",
			input:   "2025-01-09",
			wantErr: ErrDateInPast,
		},
		{
			name:    "past absolute date far",
			input:   "2020-01-01",
			wantErr: ErrDateInPast,
		},
		{
			name:    "invalid format US style",
			input:   "01-10-2025",
			wantErr: ErrInvalidDateFormat,
		},
		{
			name:    "invalid format slash",
			input:   "10/01/2025",
			wantErr: ErrInvalidDateFormat,
		},
		{
			name:    "typo weekday",
			input:   "mondya",
			wantErr: ErrInvalidDateFormat,
		},
		{
			name:    "typo next-weekday",
			input:   "next-mondya",
			wantErr: ErrInvalidDateFormat,
		},
		{
			name:    "invalid keyword",
			input:   "yesterday",
			wantErr: ErrInvalidDateFormat,
		},
		{
			name:    "random text",
			input:   "foo",
			wantErr: ErrInvalidDateFormat,
		},
		{
			name:    "next- without weekday",
			input:   "next-",
			wantErr: ErrInvalidDateFormat,
		},
		{
			name:    "next-invalid",
			input:   "next-foo",
			wantErr: ErrInvalidDateFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRelativeDate(tt.input, friday)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}
}
