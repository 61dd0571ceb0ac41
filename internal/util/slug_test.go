package util

import "testing"

func TestNormalizeChannelName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		// Basic normalization
		{"lowercase", "GENERAL", "general"},
		{"spaces to hyphens", "general chat", "general-chat"},
		{"underscores to hyphens", "general_chat", "general-chat"},
		{"already normalized", "general-chat", "general-chat"},

		// Whitespace handling
		{"trim whitespace", "  general  ", "general"},
		{"multiple spaces", "general   chat", "general-chat"},
		{"tabs and spaces", "general\t chat", "general-chat"},

		// Special characters
		{"emoji removal", "🔊 Voice!", "voice"},
		{"slashes", "dev/ops", "dev-ops"},
		{"apostrophe removal", "who's-on", "whos-on"},
		{"accent folding", "Café Lounge", "cafe-lounge"},

		// Hyphen handling
		{"multiple hyphens", "general--chat", "general-chat"},
		{"leading hyphens", "--general", "general"},
		{"trailing hyphens", "general--", "general"},
		{"mixed hyphens", "--general--chat--", "general-chat"},

		// Edge cases
		{"empty string", "", ""},
		{"only spaces", "   ", ""},
		{"only special chars", "!@#$%", ""},
		{"numbers allowed", "team10", "team10"},
		{"mixed case with numbers", "Top 10 Clips", "top-10-clips"},

		// Real-world examples
		{"announcements", "Announcements", "announcements"},
		{"off topic", "Off Topic", "off-topic"},
		{"voice lounge", "Voice_Lounge", "voice-lounge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeChannelName(tt.input)
			if result != tt.expected {
				t.Errorf("NormalizeChannelName(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
