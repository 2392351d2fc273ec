package scorm_test

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mind-engage/web2scorm/internal/scorm"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func pngDataURI(size int) string {
	data := make([]byte, size)
	copy(data, pngHeader)
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}

func manifestFor(t *testing.T, files ...string) []byte {
	t.Helper()
	d, _ := scorm.DialectFor(scorm.Version12)
	rec := scorm.Record{ScormVersion: scorm.Version12, IframeContent: "x"}.Normalize()
	b, err := scorm.BuildManifest(rec, d, files[0], files)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestPlanLogo(t *testing.T) {
	ref, err := scorm.PlanLogo("", 0)
	if err != nil || ref.CSSURL != "" || ref.File != nil {
		t.Fatalf("empty logo: %+v, %v", ref, err)
	}

	small := pngDataURI(64)
	ref, err = scorm.PlanLogo(small, 0)
	if err != nil {
		t.Fatal(err)
	}
	if ref.File != nil || !strings.HasPrefix(ref.CSSURL, "data:image/png;base64,") {
		t.Fatalf("small logo should be inlined: %+v", ref)
	}

	big := pngDataURI(scorm.DefaultInlineAssetMaxBytes + 1)
	ref, err = scorm.PlanLogo(big, 0)
	if err != nil {
		t.Fatal(err)
	}
	if ref.File == nil || ref.File.Path != "content/assets/logo.png" || ref.CSSURL != "assets/logo.png" {
		t.Fatalf("large logo should be a file: %+v", ref)
	}
	if len(ref.File.Data) != scorm.DefaultInlineAssetMaxBytes+1 || !bytes.HasPrefix(ref.File.Data, pngHeader) {
		t.Fatalf("logo bytes not decoded")
	}

	ref, err = scorm.PlanLogo(small, -1)
	if err != nil || ref.File == nil {
		t.Fatalf("negative threshold should never inline: %+v, %v", ref, err)
	}

	ref, err = scorm.PlanLogo("https://cdn.example.org/logo.svg", 0)
	if err != nil || ref.CSSURL != "https://cdn.example.org/logo.svg" || ref.File != nil {
		t.Fatalf("remote logo: %+v, %v", ref, err)
	}

	ref, err = scorm.PlanLogo("data:image/svg+xml,%3Csvg%2F%3E", 0)
	if err != nil || !strings.HasPrefix(ref.CSSURL, "data:image/svg+xml;base64,") {
		t.Fatalf("percent-encoded logo: %+v, %v", ref, err)
	}

	for _, bad := range []string{
		"logo.png",
		"javascript:alert(1)",
		"data:text/html;base64,PGI+",
		"data:image/png;base64,@@@",
		"data:image/png",
		`https://example.org/a"b.png`,
	} {
		if _, err := scorm.PlanLogo(bad, 0); !errors.Is(err, scorm.ErrInvalidConfig) {
			t.Errorf("PlanLogo(%q) err = %v, want ErrInvalidConfig", bad, err)
		}
	}
}

func TestWritePackageLayout(t *testing.T) {
	files := []scorm.File{
		{Path: "content/player.js", Data: []byte("p")},
		{Path: "content/index.html", Data: []byte("<html></html>")},
	}
	manifest := manifestFor(t, "content/index.html", "content/player.js")
	mod := time.Date(2021, 3, 4, 5, 6, 8, 0, time.UTC)

	archive, err := scorm.WritePackage(manifest, files, mod)
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
		if f.Method != zip.Deflate {
			t.Errorf("%s: method = %d", f.Name, f.Method)
		}
		if !f.Modified.Equal(mod) {
			t.Errorf("%s: modified = %v", f.Name, f.Modified)
		}
	}
	want := []string{scorm.ManifestName, "content/index.html", "content/player.js"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("entries = %v, want %v", names, want)
	}
}

func TestWritePackageIsDeterministic(t *testing.T) {
	files := []scorm.File{{Path: "content/index.html", Data: []byte("a")}, {Path: "content/x.js", Data: []byte("b")}}
	reversed := []scorm.File{files[1], files[0]}
	manifest := manifestFor(t, "content/index.html", "content/x.js")

	a, err := scorm.WritePackage(manifest, files, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	b, err := scorm.WritePackage(manifest, reversed, time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("archives differ for the same input")
	}
}

func TestWritePackagePathMismatch(t *testing.T) {
	manifest := manifestFor(t, "content/index.html", "content/a.js")

	cases := map[string][]scorm.File{
		"missing file": {{Path: "content/index.html"}},
		"undeclared file": {
			{Path: "content/index.html"}, {Path: "content/a.js"}, {Path: "content/extra.css"},
		},
		"duplicate": {
			{Path: "content/index.html"}, {Path: "content/a.js"}, {Path: "content/a.js"},
		},
		"escaping path": {
			{Path: "content/index.html"}, {Path: "content/a.js"}, {Path: "../evil"},
		},
		"manifest shadowed": {
			{Path: "content/index.html"}, {Path: "content/a.js"}, {Path: scorm.ManifestName},
		},
	}
	for name, files := range cases {
		t.Run(name, func(t *testing.T) {
			out, err := scorm.WritePackage(manifest, files, time.Time{})
			if !errors.Is(err, scorm.ErrPathMismatch) {
				t.Fatalf("err = %v, want ErrPathMismatch", err)
			}
			if out != nil {
				t.Fatal("partial archive returned")
			}
		})
	}
}
