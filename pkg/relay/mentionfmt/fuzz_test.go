// Copyright 2024-2026 Aiku AI

package mentionfmt

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// FuzzDeconstructRender — arbitrary text must never panic, and with an empty
// directory the round trip only normalizes whitespace.
// ---------------------------------------------------------------------------

func FuzzDeconstructRender(f *testing.F) {
	f.Add("hello <@123> check <#456>")
	f.Add("(<@!1>),<@&2><#3>")
	f.Add("@everyone #general")
	f.Add("")
	f.Add("<@" + strings.Repeat("9", 40) + ">")
	f.Add(string([]byte{0xff, 0x00, '<', '@'}))

	empty := fakeDirectory{}
	full := newTestDirectory()

	f.Fuzz(func(t *testing.T, text string) {
		seq := Deconstruct(text, "A", empty, allFlags)
		got := Render(seq, "B", empty, allFlags)
		want := strings.Join(strings.Fields(text), " ")
		if got != want {
			t.Errorf("round trip with empty directory: got %q, want %q", got, want)
		}

		// Resolution against a populated roster must not panic either.
		seq = Deconstruct(text, "A", full, allFlags)
		_ = Render(seq, "B", full, allFlags)
		_ = Render(seq, "A", full, Flags{})
	})
}
