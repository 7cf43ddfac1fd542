package errors

import (
	"math"
	"testing"
)

func TestValidateSwitchID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid numeric", "1042", false},
		{"valid alpha", "yard-east", false},
		{"valid underscore", "sw_12", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 80)), true},
		{"slash", "12/toggle", true},
		{"traversal", "..", true},
		{"backslash", "a\\b", true},
		{"query", "12?x=1", true},
		{"fragment", "12#a", true},
		{"control char", "12\x01", true},
		{"newline", "12\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSwitchID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSwitchID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidSwitch) {
				t.Errorf("ValidateSwitchID(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidSwitch)
			}
		})
	}
}

func TestValidateChannel(t *testing.T) {
	tests := []struct {
		input   int
		wantErr bool
	}{
		{0, false},
		{7, false},
		{MaxChannel, false},
		{-1, true},
		{MaxChannel + 1, true},
	}

	for _, tt := range tests {
		err := ValidateChannel(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateChannel(%d) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestValidateAngle(t *testing.T) {
	tests := []struct {
		name    string
		input   float64
		wantErr bool
	}{
		{"zero", 0, false},
		{"typical", 65, false},
		{"max", MaxAngle, false},
		{"negative", -1, true},
		{"too large", 181, true},
		{"nan", math.NaN(), true},
		{"inf", math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAngle(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAngle(%v) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"http", "http://raspberrypi.local/api", false},
		{"https", "https://example.com/api", false},

		{"empty", "", true},
		{"no scheme", "raspberrypi.local/api", true},
		{"ftp", "ftp://example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
