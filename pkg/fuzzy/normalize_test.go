package fuzzy

import "testing"

func TestNormalize(t *testing.T) {
	n := NewNormalizer()

	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "lowercases", input: "Lofi Beats", expected: "lofi beats"},
		{name: "strips diacritics", input: "Beyoncé", expected: "beyonce"},
		{name: "collapses whitespace", input: "  deep\t\nfocus  ", expected: "deep focus"},
		{name: "empty input", input: "", expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := n.Normalize(tc.input); got != tc.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestContains(t *testing.T) {
	n := NewNormalizer()

	testCases := []struct {
		name     string
		haystack string
		needle   string
		expected bool
	}{
		{name: "exact substring", haystack: "Lofi Beats", needle: "lofi", expected: true},
		{name: "case insensitive", haystack: "LOFI HIP HOP", needle: "Lofi", expected: true},
		{name: "diacritic insensitive", haystack: "Café del Mar", needle: "cafe", expected: true},
		{name: "no match", haystack: "Heavy Metal Anthems", needle: "lofi", expected: false},
		{name: "empty needle never matches", haystack: "anything", needle: "", expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := n.Contains(tc.haystack, tc.needle); got != tc.expected {
				t.Errorf("Contains(%q, %q) = %v, want %v", tc.haystack, tc.needle, got, tc.expected)
			}
		})
	}
}
