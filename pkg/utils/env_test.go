package utils

import (
	"testing"
)

func Test_StringEnv(t *testing.T) {
	testCases := []struct {
		title        string
		value        string
		defaultValue string
		expected     string
	}{
		{
			title:        "variable set",
			value:        "/usr/local/bin/chromedriver",
			defaultValue: "",
			expected:     "/usr/local/bin/chromedriver",
		},
		{
			title:        "variable not set returns default",
			value:        "",
			defaultValue: "fallback",
			expected:     "fallback",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.title, func(t *testing.T) {
			t.Setenv("WIKICAP_TEST_STRING", tc.value)

			actual := StringEnv("WIKICAP_TEST_STRING", tc.defaultValue)
			if actual != tc.expected {
				t.Errorf("expected %q got %q", tc.expected, actual)
			}
		})
	}
}

func Test_BoolEnv(t *testing.T) {
	testCases := []struct {
		title        string
		value        string
		defaultValue bool
		expected     bool
	}{
		{
			title:        "true value",
			value:        "true",
			defaultValue: false,
			expected:     true,
		},
		{
			title:        "numeric true",
			value:        "1",
			defaultValue: false,
			expected:     true,
		},
		{
			title:        "false value",
			value:        "false",
			defaultValue: true,
			expected:     false,
		},
		{
			title:        "invalid value returns default",
			value:        "not-a-bool",
			defaultValue: true,
			expected:     true,
		},
		{
			title:        "unset returns default",
			value:        "",
			defaultValue: true,
			expected:     true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.title, func(t *testing.T) {
			t.Setenv("WIKICAP_TEST_BOOL", tc.value)

			actual := BoolEnv("WIKICAP_TEST_BOOL", tc.defaultValue)
			if actual != tc.expected {
				t.Errorf("expected %t got %t", tc.expected, actual)
			}
		})
	}
}
