// Package separator defines the token separators used in phonemized output.
package separator

import "fmt"

// Separator holds the strings inserted between words, syllables and phones
// in phonemized output. A Separator is immutable after construction.
type Separator struct {
	Word     string
	Syllable string
	Phone    string
}

// Default returns the separator used when none is configured: words split by
// a single space, syllables and phones joined without separation.
func Default() Separator {
	return Separator{Word: " ", Syllable: "", Phone: ""}
}

// New builds a Separator, rejecting any pair of equal non-empty fields.
// Equal separators at two levels would make the output ambiguous to split,
// so this is reported as a configuration error and never silently fixed.
func New(word, syllable, phone string) (Separator, error) {
	if word != "" && word == syllable {
		return Separator{}, fmt.Errorf("word and syllable separators are both %q", word)
	}
	if word != "" && word == phone {
		return Separator{}, fmt.Errorf("word and phone separators are both %q", word)
	}
	if syllable != "" && syllable == phone {
		return Separator{}, fmt.Errorf("syllable and phone separators are both %q", syllable)
	}
	return Separator{Word: word, Syllable: syllable, Phone: phone}, nil
}
