package tokenizer

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty string", "", []string{}},
		{"simple lowercase", "hello world", []string{"hello", "world"}},
		{"with punctuation", "hello, world!", []string{"hello", "world"}},
		{"with numbers", "item123 test", []string{"item123", "test"}},
		{"leading/trailing spaces", "  hello world  ", []string{"hello", "world"}},
		{"all caps word", "HELLO WORLD", []string{"hello", "world"}},
		{"curie", "gomodel:5fce9b7300001215", []string{"gomodel", "5fce9b7300001215"}},
		{"string with hyphen", "state-of-the-art", []string{"state", "of", "the", "art"}},
		{"string with underscore", "my_variable_name", []string{"my", "variable", "name"}},
		{"unicode letters kept", "Müller Café", []string{"müller", "café"}},
		{"greek", "ΑΒΓ δ", []string{"αβγ", "δ"}},
		{"only symbols", "!@#$%^", []string{}},
		{"only numbers", "12345 67890", []string{"12345", "67890"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFold(t *testing.T) {
	tests := map[string]string{
		"müller":   "muller",
		"café":     "cafe",
		"naïve":    "naive",
		"plain":    "plain",
		"Ångström": "Angstrom",
		"":         "",
	}
	for in, want := range tests {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGeneratePrefixNGrams(t *testing.T) {
	tests := []struct {
		name  string
		token string
		want  []string
	}{
		{"empty token", "", []string{}},
		{"single character", "a", []string{"a"}},
		{"short token", "cat", []string{"c", "ca", "cat"}},
		{"multibyte runes", "mü", []string{"m", "mü"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GeneratePrefixNGrams(tt.token)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("GeneratePrefixNGrams(%q) = %v, want %v", tt.token, got, tt.want)
			}
		})
	}
}

func TestTerms(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		prefixes bool
		want     []Term
	}{
		{"empty string", "", true, []Term{}},
		{"whole words only", "cat dog", false, []Term{{"cat", true}, {"dog", true}}},
		{
			name:     "prefixes",
			input:    "cat",
			prefixes: true,
			want:     []Term{{"cat", true}, {"c", false}, {"ca", false}},
		},
		{
			name:     "prefix that is also a word stays full",
			input:    "category cat",
			prefixes: true,
			want: []Term{
				{"category", true}, {"c", false}, {"ca", false}, {"cat", true}, {"cate", false},
				{"categ", false}, {"catego", false}, {"categor", false},
			},
		},
		{"duplicate tokens", "go go", true, []Term{{"go", true}, {"g", false}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Terms(tt.input, tt.prefixes)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Terms(%q, %v) = %v, want %v", tt.input, tt.prefixes, got, tt.want)
			}
		})
	}
}
