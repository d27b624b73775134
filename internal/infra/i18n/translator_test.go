package i18n

import (
	"strings"
	"testing"
)

func TestTranslator(t *testing.T) {
	for _, lang := range []string{"uz", "en"} {
		t.Run(lang, func(t *testing.T) {
			tr, err := NewTranslator(LocalesFS, lang)
			if err != nil {
				t.Fatalf("NewTranslator(%s): %v", lang, err)
			}

			if got := tr.T("reason.link"); got == "" || got == "reason.link" {
				t.Errorf("reason.link not translated, got %q", got)
			}

			warn := tr.T("warn.deleted", "@someone", tr.T("reason.ad"))
			if !strings.Contains(warn, "@someone") {
				t.Errorf("warn.deleted did not interpolate user: %q", warn)
			}

			if tr.Welcome() == "" {
				t.Error("welcome text is empty")
			}
		})
	}
}

func TestTranslatorFallsBackToKey(t *testing.T) {
	tr, err := NewTranslator(LocalesFS, "en")
	if err != nil {
		t.Fatal(err)
	}
	if got := tr.T("no.such.key"); got != "no.such.key" {
		t.Errorf("expected key fallback, got %q", got)
	}
}

func TestTranslatorUnknownLocale(t *testing.T) {
	if _, err := NewTranslator(LocalesFS, "xx"); err == nil {
		t.Error("expected error for unknown locale")
	}
}
