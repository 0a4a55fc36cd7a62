package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDurationText(t *testing.T) {
	tests := []struct {
		text    string
		minutes int
		ok      bool
	}{
		{"1 hour 30 minutes", 90, true},
		{"90 min", 90, true},
		{"1h30m", 90, true},
		{"1:30", 90, true},
		{"2 hours", 120, true},
		{"1,5 часа", 90, true},
		{"1.5h", 90, true},
		{"2 часа 15 минут", 135, true},
		{"45 мин", 45, true},
		{"  45 ", 45, true},
		{"", 0, false},
		{"about an hour", 0, false},
		{"0 min", 0, false},
		{"0:00", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			minutes, ok := ParseDurationText(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.minutes, minutes)
		})
	}
}
