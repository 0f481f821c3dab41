package anyllm

import "testing"

func TestNewValidatesArguments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		providerName string
		model        string
	}{
		{"empty provider", "", "gpt-4o-mini"},
		{"empty model", "openai", ""},
		{"unknown provider", "babelfish", "gpt-4o-mini"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := New(tt.providerName, tt.model); err == nil {
				t.Errorf("New(%q, %q) should fail", tt.providerName, tt.model)
			}
		})
	}
}
