package scorm_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mind-engage/web2scorm/internal/scorm"
)

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	var ce *scorm.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("want *ConfigError, got %T (%v)", err, err)
	}
	if !errors.Is(err, scorm.ErrInvalidConfig) {
		t.Fatalf("ConfigError does not wrap ErrInvalidConfig")
	}
	out := map[string]string{}
	for _, f := range ce.Fields {
		out[f.Field] = f.Reason
	}
	return out
}

func TestNormalizeAppliesDefaults(t *testing.T) {
	in := scorm.Record{ScormVersion: " 1.2 ", IframeContent: "  https://example.org  "}
	r := in.Normalize()

	if r.ScormVersion != scorm.Version12 {
		t.Fatalf("version = %q", r.ScormVersion)
	}
	if r.PackageType != scorm.PackageIframeOnly {
		t.Fatalf("packageType = %q", r.PackageType)
	}
	if r.Title != scorm.DefaultTitle || r.Description != scorm.DefaultDescription {
		t.Fatalf("title/description defaults not applied: %q / %q", r.Title, r.Description)
	}
	if r.IframeContent != "https://example.org" {
		t.Fatalf("iframeContent not trimmed: %q", r.IframeContent)
	}
	if r.ButtonText != scorm.DefaultButtonText || r.HeaderBgColor != scorm.DefaultHeaderBgColor {
		t.Fatalf("style defaults not applied: %+v", r)
	}
	if in.Title != "" {
		t.Fatalf("Normalize mutated its receiver")
	}
}

func TestNormalizeDropsAutoCompleteOutsideIframeOnly(t *testing.T) {
	r := scorm.Record{
		ScormVersion:         scorm.Version2004,
		PackageType:          scorm.PackageIframeWithCode,
		IframeContent:        "<p>x</p>",
		CompletionCode:       "A",
		AutoCompleteEnabled:  true,
		AutoCompleteDuration: 5,
	}.Normalize()
	if r.AutoCompleteEnabled || r.AutoCompleteDuration != 0 {
		t.Fatalf("auto-complete kept for %s", r.PackageType)
	}
	if _, ok := r.Trigger().(scorm.CodeGate); !ok {
		t.Fatalf("trigger = %T, want CodeGate", r.Trigger())
	}
}

func TestValidate(t *testing.T) {
	base := scorm.Record{ScormVersion: scorm.Version12, IframeContent: "https://example.org"}

	cases := []struct {
		name   string
		mutate func(*scorm.Record)
		fields []string
	}{
		{"valid", func(*scorm.Record) {}, nil},
		{"missing version", func(r *scorm.Record) { r.ScormVersion = "" }, []string{"scormVersion"}},
		{"unknown version", func(r *scorm.Record) { r.ScormVersion = "1.3" }, []string{"scormVersion"}},
		{"unknown type", func(r *scorm.Record) { r.PackageType = "slides" }, []string{"packageType"}},
		{"empty content", func(r *scorm.Record) { r.IframeContent = "   " }, []string{"iframeContent"}},
		{"negative duration", func(r *scorm.Record) { r.Duration = -1 }, []string{"duration"}},
		{"auto-complete zero", func(r *scorm.Record) { r.AutoCompleteEnabled = true }, []string{"autoCompleteDuration"}},
		{"auto-complete too long", func(r *scorm.Record) {
			r.AutoCompleteEnabled = true
			r.AutoCompleteDuration = scorm.MaxAutoCompleteMinutes + 1
		}, []string{"autoCompleteDuration"}},
		{"auto-complete max", func(r *scorm.Record) {
			r.AutoCompleteEnabled = true
			r.AutoCompleteDuration = scorm.MaxAutoCompleteMinutes
		}, nil},
		{"code without code", func(r *scorm.Record) { r.PackageType = scorm.PackageIframeWithCode }, []string{"completionCode"}},
		{"code with bad colors", func(r *scorm.Record) {
			r.PackageType = scorm.PackageIframeWithCode
			r.CompletionCode = "X"
			r.HeaderBgColor = "red"
			r.ButtonTextColor = "#12345"
		}, []string{"headerBgColor", "buttonTextColor"}},
		{"colors ignored without code gate", func(r *scorm.Record) { r.HeaderBgColor = "red" }, nil},
		{"youtube needs no content", func(r *scorm.Record) {
			r.PackageType = scorm.PackageYouTube
			r.IframeContent = ""
		}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := base
			tc.mutate(&r)
			err := r.Normalize().Validate()
			if tc.fields == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			got := fieldsOf(t, err)
			if len(got) != len(tc.fields) {
				t.Fatalf("fields = %v, want %v", got, tc.fields)
			}
			for _, f := range tc.fields {
				if _, ok := got[f]; !ok {
					t.Fatalf("missing field %q in %v", f, got)
				}
			}
		})
	}
}

func TestTriggerSelection(t *testing.T) {
	r := scorm.Record{ScormVersion: scorm.Version12, IframeContent: "x"}.Normalize()
	if _, ok := r.Trigger().(scorm.Manual); !ok {
		t.Fatalf("trigger = %T, want Manual", r.Trigger())
	}

	r.AutoCompleteEnabled, r.AutoCompleteDuration = true, 30
	timer, ok := r.Trigger().(scorm.Timer)
	if !ok || timer.Minutes != 30 {
		t.Fatalf("trigger = %#v, want Timer{30}", r.Trigger())
	}
	if got := timer.Settings()["delayMs"]; got != 30*60*1000 {
		t.Fatalf("delayMs = %v", got)
	}

	r.PackageType = scorm.PackageYouTube
	if k := r.Trigger().Kind(); k != "video" {
		t.Fatalf("kind = %q", k)
	}
}

func TestParseRecordYAMLAndJSON(t *testing.T) {
	yml := []byte(`
scormVersion: 2004
title: Fire safety
packageType: iframe-with-code
iframeContent: https://example.org/course
completionCode: XYZ123
duration: 45
`)
	r, err := scorm.ParseRecord(yml)
	if err != nil {
		t.Fatal(err)
	}
	if r.ScormVersion != scorm.Version2004 || r.Title != "Fire safety" || r.CompletionCode != "XYZ123" || r.Duration != 45 {
		t.Fatalf("decoded = %+v", r)
	}

	js := []byte(`{"scormVersion":"1.2","autoCompleteEnabled":true,"autoCompleteDuration":30,"iframeContent":"<p>hi</p>"}`)
	r, err = scorm.ParseRecord(js)
	if err != nil {
		t.Fatal(err)
	}
	if r.ScormVersion != scorm.Version12 || !r.AutoCompleteEnabled || r.AutoCompleteDuration != 30 {
		t.Fatalf("decoded = %+v", r)
	}

	if _, err := scorm.ParseRecord([]byte("title: [unterminated")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLoadRecord(t *testing.T) {
	p := filepath.Join(t.TempDir(), "course.yaml")
	if err := os.WriteFile(p, []byte("scormVersion: \"1.2\"\niframeContent: https://example.org\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := scorm.LoadRecord(p)
	if err != nil {
		t.Fatal(err)
	}
	if r.IframeContent != "https://example.org" {
		t.Fatalf("decoded = %+v", r)
	}
	if _, err := scorm.LoadRecord(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"Fire Safety 101":          "fire-safety-101",
		"  Évaluation   Française ": "evaluation-francaise",
		"***":                      "package",
		"":                         "package",
		"a/b\\c":                   "a-b-c",
	}
	for in, want := range cases {
		if got := scorm.Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
	long := scorm.Slug("abcdefghij abcdefghij abcdefghij abcdefghij abcdefghij abcdefghij")
	if len(long) > 48 || long[len(long)-1] == '-' {
		t.Fatalf("long slug = %q", long)
	}
}
