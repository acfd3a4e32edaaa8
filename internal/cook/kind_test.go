package cook_test

import (
	"testing"

	"actorflow/internal/cook"
)

func TestKindFor(t *testing.T) {
	cases := map[string]cook.Kind{
		"ui/menu.JSON":     cook.KindText,
		"loc/strings.loc":  cook.KindText,
		"shaders/sky.glsl": cook.KindText,
		"mesh/rock.obj":    cook.KindBinary,
		"noext":            cook.KindBinary,
	}
	for name, want := range cases {
		if got := cook.KindFor(name); got != want {
			t.Fatalf("KindFor(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestTitleFor(t *testing.T) {
	cases := map[string]string{
		"ui/main_menu.json":  "Main Menu",
		"fonts/body-bold.tt": "Body Bold",
		"a.b.c":              "A B",
		".txt":               ".txt",
	}
	for name, want := range cases {
		if got := cook.TitleFor(name); got != want {
			t.Fatalf("TitleFor(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	cases := map[string]string{
		"":                 "",
		"a\r\nb":           "a\nb\n",
		"a\rb\n":           "a\nb\n",
		"\xEF\xBB\xBFhi":   "hi\n",
		"e\u0301":          "\u00e9\n",
		"already\nclean\n": "already\nclean\n",
	}
	for in, want := range cases {
		if got := string(cook.NormalizeText([]byte(in))); got != want {
			t.Fatalf("NormalizeText(%q) = %q, want %q", in, got, want)
		}
	}
}
