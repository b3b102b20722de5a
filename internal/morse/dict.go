// Package morse maps dot/dash sequences to text and drives the decoding
// state machine.
package morse

import (
	"fmt"
	"strings"

	"github.com/verte-zerg/blinkmorse/internal/model"
)

// codeTable is the standard ITU mapping plus common punctuation.
var codeTable = map[string]string{
	".-": "A", "-...": "B", "-.-.": "C", "-..": "D", ".": "E",
	"..-.": "F", "--.": "G", "....": "H", "..": "I", ".---": "J",
	"-.-": "K", ".-..": "L", "--": "M", "-.": "N", "---": "O",
	".--.": "P", "--.-": "Q", ".-.": "R", "...": "S", "-": "T",
	"..-": "U", "...-": "V", ".--": "W", "-..-": "X", "-.--": "Y",
	"--..": "Z",
	"-----": "0", ".----": "1", "..---": "2", "...--": "3", "....-": "4",
	".....": "5", "-....": "6", "--...": "7", "---..": "8", "----.": "9",
	".-.-.-": ".", "--..--": ",", "..--..": "?", ".----.": "'",
	"-.-.--": "!", "-..-.": "/", "-.--.": "(", "-.--.-": ")",
	".-..-.": "\"", "---...": ":", "-.-.-.": ";", "-...-": "=",
	".-.-.": "+", "-....-": "-", "..--.-": "_", ".--.-.": "@",
}

// Dictionary is an immutable sequence-to-character mapping.
type Dictionary struct {
	entries map[string]string
	reverse map[string]string
	maxLen  int
}

// NewDictionary builds a dictionary from the given mapping. Sequences may
// contain only '.' and '-'.
func NewDictionary(entries map[string]string) (*Dictionary, error) {
	d := &Dictionary{
		entries: make(map[string]string, len(entries)),
		reverse: make(map[string]string, len(entries)),
	}
	for seq, char := range entries {
		if err := ValidateSequence(seq); err != nil {
			return nil, fmt.Errorf("dictionary entry %q: %w", seq, err)
		}
		d.entries[seq] = char
		d.reverse[char] = seq
		if len(seq) > d.maxLen {
			d.maxLen = len(seq)
		}
	}
	return d, nil
}

// DefaultDictionary returns the built-in ITU table.
func DefaultDictionary() *Dictionary {
	d, err := NewDictionary(codeTable)
	if err != nil {
		panic(err) // static table, cannot fail
	}
	return d
}

// Lookup resolves a dot/dash sequence to its character.
func (d *Dictionary) Lookup(seq string) (string, bool) {
	char, ok := d.entries[seq]
	return char, ok
}

// Encode resolves a character to its dot/dash sequence.
func (d *Dictionary) Encode(char string) (string, bool) {
	seq, ok := d.reverse[char]
	return seq, ok
}

// MaxLen returns the length of the longest sequence in the dictionary.
func (d *Dictionary) MaxLen() int {
	return d.maxLen
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// Sequence renders symbols in dictionary notation.
func Sequence(symbols []model.Symbol) string {
	var b strings.Builder
	b.Grow(len(symbols))
	for _, s := range symbols {
		b.WriteString(s.String())
	}
	return b.String()
}

// ValidateSequence checks that seq is non-empty and contains only '.' and '-'.
func ValidateSequence(seq string) error {
	if seq == "" {
		return fmt.Errorf("empty sequence")
	}
	for _, r := range seq {
		if r != '.' && r != '-' {
			return fmt.Errorf("invalid symbol %q", r)
		}
	}
	return nil
}
