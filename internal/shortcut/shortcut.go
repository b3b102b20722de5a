// Package shortcut maps fixed dot/dash sequences to urgent phrases.
package shortcut

import (
	"fmt"

	"github.com/verte-zerg/blinkmorse/internal/morse"
)

// defaultCommands are the built-in emergency phrases.
var defaultCommands = map[string]string{
	"...---...": "HELP! EMERGENCY!",
	"..--.":     "I need water",
	"--..--":    "Call the nurse",
	".-.-":      "I am in pain",
	"..--":      "Thank you",
	"---...---": "I need medication",
}

type node struct {
	children [2]*node
	phrase   string
	terminal bool
}

// Table is a prefix trie of quick-command sequences. It is read-only after
// construction; configuration reloads build a fresh Table.
type Table struct {
	root   node
	maxLen int
	size   int
}

// New builds a Table from sequence-to-phrase entries.
func New(entries map[string]string) (*Table, error) {
	t := &Table{}
	for seq, phrase := range entries {
		if err := morse.ValidateSequence(seq); err != nil {
			return nil, fmt.Errorf("shortcut %q: %w", seq, err)
		}
		if phrase == "" {
			return nil, fmt.Errorf("shortcut %q: empty phrase", seq)
		}
		cur := &t.root
		for i := 0; i < len(seq); i++ {
			idx := 0
			if seq[i] == '-' {
				idx = 1
			}
			if cur.children[idx] == nil {
				cur.children[idx] = &node{}
			}
			cur = cur.children[idx]
		}
		cur.phrase = phrase
		cur.terminal = true
		if len(seq) > t.maxLen {
			t.maxLen = len(seq)
		}
		t.size++
	}
	return t, nil
}

// Default returns the built-in emergency command table.
func Default() *Table {
	t, err := New(defaultCommands)
	if err != nil {
		panic(err) // static table, cannot fail
	}
	return t
}

func (t *Table) walk(seq string) *node {
	cur := &t.root
	for i := 0; i < len(seq); i++ {
		idx := 0
		if seq[i] == '-' {
			idx = 1
		}
		cur = cur.children[idx]
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Lookup resolves an exact sequence match to its phrase.
func (t *Table) Lookup(seq string) (string, bool) {
	n := t.walk(seq)
	if n == nil || !n.terminal {
		return "", false
	}
	return n.phrase, true
}

// HasPrefix reports whether seq is a prefix of at least one command,
// letting the interaction layer show "possible shortcut in progress"
// before a gap arrives.
func (t *Table) HasPrefix(seq string) bool {
	if seq == "" {
		return false
	}
	return t.walk(seq) != nil
}

// MaxLen returns the length of the longest command sequence.
func (t *Table) MaxLen() int {
	return t.maxLen
}

// Len returns the number of commands.
func (t *Table) Len() int {
	return t.size
}
