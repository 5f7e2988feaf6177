package session

import "testing"

func TestIsResetCommand(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"stop", true},
		{"STOP!", true},
		{"/cancel", true},
		{"/reset", true},
		{"ok start over", true},
		{"never mind, thanks", true},
		{"please stop it", true},
		{"forget it", true},
		{"stop the meeting reminders", true},
		{"cancel my dentist appointment", false},
		{"nonstop work block", false},
		{"find an hour tomorrow", false},
		{"", false},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			if got := IsResetCommand(tc.text); got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
