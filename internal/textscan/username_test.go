package textscan

import "testing"

func TestIsValidHandle(t *testing.T) {
	cases := []struct {
		name   string
		handle string
		want   bool
	}{
		{"valid plain", "john_doe1", true},
		{"valid with at", "@john_doe1", true},
		{"valid max length", "a2345678901234567890123456789012", true},
		{"empty", "", false},
		{"only at", "@", false},
		{"too short", "abcd", false},
		{"too long", "a23456789012345678901234567890123", false},
		{"starts with digit", "1abcde", false},
		{"starts with underscore", "_abcde", false},
		{"ends with underscore", "abcde_", false},
		{"double underscore", "ab__cd", false},
		{"illegal character", "ab-cde", false},
		{"inner space", "ab cde", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsValidHandle(tc.handle); got != tc.want {
				t.Errorf("IsValidHandle(%q) = %v, want %v", tc.handle, got, tc.want)
			}
		})
	}
}
