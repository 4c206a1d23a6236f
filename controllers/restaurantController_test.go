package controllers

import "testing"

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Spice Villa":        "spice-villa",
		"  Café Déjà Vu  ":   "café-déjà-vu",
		"Bob's Diner #2":     "bob-s-diner-2",
		"---":                "",
		"Already-Slugged":    "already-slugged",
		"Tabs\tand\nspaces!": "tabs-and-spaces",
	}
	for input, want := range cases {
		if got := slugify(input); got != want {
			t.Errorf("slugify(%q) = %q, want %q", input, got, want)
		}
	}
}
