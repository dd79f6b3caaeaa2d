package main

import "testing"

func TestReadUIMode(t *testing.T) {
	cases := []struct {
		in   string
		want uiMode
		ok   bool
	}{
		{"", uiModeAuto, true},
		{"auto", uiModeAuto, true},
		{" ON ", uiModeOn, true},
		{"off", uiModeOff, true},
		{"always", "", false},
	}
	for _, c := range cases {
		got, err := readUIMode(c.in)
		if (err == nil) != c.ok || got != c.want {
			t.Errorf("readUIMode(%q) = %q, %v", c.in, got, err)
		}
	}
}

func TestShouldUseTUI(t *testing.T) {
	t.Setenv("CI", "")

	if !shouldUseTUI(uiModeOn, false) {
		t.Error("on must force the TUI")
	}
	if shouldUseTUI(uiModeOff, true) {
		t.Error("off must suppress the TUI")
	}
	if shouldUseTUI(uiModeAuto, false) {
		t.Error("auto needs an interactive stdout")
	}
	if !shouldUseTUI(uiModeAuto, true) {
		t.Error("auto with an interactive stdout should enable the TUI")
	}
}

func TestShouldUseTUIRespectsCI(t *testing.T) {
	t.Setenv("CI", "true")

	if shouldUseTUI(uiModeAuto, true) {
		t.Error("CI must disable the automatic TUI")
	}
	if !shouldUseTUI(uiModeOn, true) {
		t.Error("explicit on overrides CI")
	}
}
