package scorm_test

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mind-engage/web2scorm/internal/scorm"
	"github.com/mind-engage/web2scorm/internal/scorm/parser"
)

func mustBuild(t *testing.T, rec scorm.Record) *scorm.Package {
	t.Helper()
	pkg, err := scorm.Build(rec)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return pkg
}

func fileData(t *testing.T, pkg *scorm.Package, path string) string {
	t.Helper()
	for _, f := range pkg.Content.Files {
		if f.Path == path {
			return string(f.Data)
		}
	}
	t.Fatalf("%s not in package (have %v)", path, pkg.Content.Paths())
	return ""
}

func TestBuildIframeOnly12(t *testing.T) {
	pkg := mustBuild(t, scorm.Record{
		ScormVersion:  scorm.Version12,
		Title:         "Onboarding",
		PackageType:   scorm.PackageIframeOnly,
		IframeContent: "https://example.org/course",
	})

	read, err := parser.ReadBytes(pkg.Archive)
	if err != nil {
		t.Fatal(err)
	}
	if rep := read.Check(); !rep.OK() {
		t.Fatalf("manifest/archive mismatch: %+v", rep)
	}
	if n := len(read.Manifest.Resources); n != 1 || read.Manifest.Resources[0].ScormType != "sco" {
		t.Fatalf("resources = %+v", read.Manifest.Resources)
	}
	for _, p := range []string{scorm.EntryFile, scorm.BridgeFile, scorm.PlayerFile, scorm.StylesFile} {
		if _, ok := read.Files[p]; !ok {
			t.Errorf("%s missing from archive", p)
		}
	}

	page := fileData(t, pkg, scorm.EntryFile)
	if !strings.Contains(page, `<iframe id="content-frame" src="https://example.org/course"`) {
		t.Errorf("frame not rendered:\n%s", page)
	}
	if strings.Contains(page, "code-form") || strings.Contains(page, "end-message") {
		t.Errorf("iframe-only page has a code gate:\n%s", page)
	}
	if !strings.Contains(fileData(t, pkg, scorm.PlayerFile), `"trigger":"manual"`) {
		t.Errorf("player should use the manual trigger")
	}
	bridge := fileData(t, pkg, scorm.BridgeFile)
	if !strings.Contains(bridge, `"apiName":"API"`) || !strings.Contains(bridge, "var MAX_DEPTH = 10;") {
		t.Errorf("bridge not parameterized for 1.2")
	}
}

func TestBuildInlineHTML(t *testing.T) {
	pkg := mustBuild(t, scorm.Record{
		ScormVersion:  scorm.Version2004,
		IframeContent: `<iframe src="https://player.example.org/embed/42"></iframe>`,
	})
	page := fileData(t, pkg, scorm.EntryFile)
	if !strings.Contains(page, `<div class="inline-content"><iframe src="https://player.example.org/embed/42"></iframe></div>`) {
		t.Fatalf("inline markup not embedded verbatim:\n%s", page)
	}
	if strings.Contains(page, `id="content-frame"`) {
		t.Fatalf("inline markup treated as URL")
	}
}

func TestBuildCodeGate2004(t *testing.T) {
	pkg := mustBuild(t, scorm.Record{
		ScormVersion:      scorm.Version2004,
		PackageType:       scorm.PackageIframeWithCode,
		IframeContent:     "https://example.org/quiz",
		CompletionCode:    "XYZ123",
		CodePromptMessage: "Code <here>:",
		EndMessage:        "## Well done\n\nYou are **finished**.\n\n<script>alert(1)</script>",
		HeaderBgColor:     "#123456",
		ButtonText:        "Check",
		Logo:              pngDataURI(32),
	})

	page := fileData(t, pkg, scorm.EntryFile)
	for _, want := range []string{
		`<form id="code-form"`,
		`Code &lt;here&gt;:`,
		`<button type="submit">Check</button>`,
		`<h2>Well done</h2>`,
		`<strong>finished</strong>`,
		`<div class="logo"`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %s\n%s", want, page)
		}
	}
	if strings.Contains(page, "<script>alert(1)</script>") {
		t.Errorf("raw HTML from the end message leaked into the page")
	}

	css := fileData(t, pkg, scorm.StylesFile)
	if !strings.Contains(css, "background: #123456;") || !strings.Contains(css, `url("data:image/png;base64,`) {
		t.Errorf("styles not themed:\n%s", css)
	}
	player := fileData(t, pkg, scorm.PlayerFile)
	if !strings.Contains(player, `"code":"XYZ123"`) || !strings.Contains(player, `"trigger":"code"`) {
		t.Errorf("player settings wrong:\n%s", player)
	}
	if !strings.Contains(fileData(t, pkg, scorm.BridgeFile), `"apiName":"API_1484_11"`) {
		t.Errorf("bridge not parameterized for 2004")
	}
}

func TestBuildLargeLogoBecomesAsset(t *testing.T) {
	rec := scorm.Record{
		ScormVersion:   scorm.Version12,
		PackageType:    scorm.PackageIframeWithCode,
		IframeContent:  "https://example.org",
		CompletionCode: "A",
		Logo:           pngDataURI(2048),
	}
	pkg, err := scorm.NewBuilder(scorm.Options{InlineAssetMaxBytes: 1024}).Build(rec)
	if err != nil {
		t.Fatal(err)
	}
	if got := fileData(t, pkg, "content/assets/logo.png"); len(got) != 2048 {
		t.Fatalf("logo asset size = %d", len(got))
	}
	if !strings.Contains(fileData(t, pkg, scorm.StylesFile), `url("assets/logo.png")`) {
		t.Fatal("stylesheet does not reference the logo asset")
	}
	read, err := parser.ReadBytes(pkg.Archive)
	if err != nil {
		t.Fatal(err)
	}
	if !read.Check().OK() {
		t.Fatalf("report = %+v", read.Check())
	}
}

func TestBuildIgnoresLogoWithoutCodeGate(t *testing.T) {
	pkg := mustBuild(t, scorm.Record{ScormVersion: scorm.Version12, IframeContent: "x", Logo: "not a logo"})
	for _, p := range pkg.Content.Paths() {
		if strings.HasPrefix(p, scorm.AssetsDir) {
			t.Fatalf("unexpected asset %s", p)
		}
	}
}

func TestBuildTimer(t *testing.T) {
	pkg := mustBuild(t, scorm.Record{
		ScormVersion:         scorm.Version12,
		IframeContent:        "https://example.org",
		AutoCompleteEnabled:  true,
		AutoCompleteDuration: 30,
	})
	player := fileData(t, pkg, scorm.PlayerFile)
	if !strings.Contains(player, `"trigger":"timer"`) || !strings.Contains(player, `"delayMs":1800000`) {
		t.Fatalf("timer settings missing:\n%s", player)
	}
}

func TestBuildYouTubeIsInert(t *testing.T) {
	pkg := mustBuild(t, scorm.Record{ScormVersion: scorm.Version2004, PackageType: scorm.PackageYouTube, YouTubeVideoID: "abc"})
	page := fileData(t, pkg, scorm.EntryFile)
	if !strings.Contains(page, `data-video-id="abc"`) {
		t.Fatalf("video placeholder missing:\n%s", page)
	}
	if !strings.Contains(fileData(t, pkg, scorm.PlayerFile), `"trigger":"video"`) {
		t.Fatal("player should carry the video trigger")
	}
}

func TestBuildDefaultTitle(t *testing.T) {
	pkg := mustBuild(t, scorm.Record{ScormVersion: scorm.Version12, IframeContent: "https://example.org"})
	m, err := parser.ParseManifest(pkg.Manifest)
	if err != nil {
		t.Fatal(err)
	}
	if m.Organizations[0].Title != scorm.DefaultTitle {
		t.Fatalf("title = %q", m.Organizations[0].Title)
	}
	if pkg.FileName() != "untitled-scorm-package-scorm1.2.zip" {
		t.Fatalf("file name = %q", pkg.FileName())
	}
}

func TestBuildRejectsInvalidRecord(t *testing.T) {
	_, err := scorm.Build(scorm.Record{ScormVersion: "2004", PackageType: scorm.PackageIframeWithCode})
	if !errors.Is(err, scorm.ErrInvalidConfig) {
		t.Fatalf("err = %v", err)
	}
	_, err = scorm.Build(scorm.Record{
		ScormVersion:   scorm.Version12,
		PackageType:    scorm.PackageIframeWithCode,
		IframeContent:  "x",
		CompletionCode: "A",
		Logo:           "ftp://example.org/logo.png",
	})
	if !errors.Is(err, scorm.ErrInvalidConfig) {
		t.Fatalf("bad logo err = %v", err)
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	rec := scorm.Record{
		ScormVersion:   scorm.Version2004,
		PackageType:    scorm.PackageIframeWithCode,
		IframeContent:  "https://example.org",
		CompletionCode: "A",
		Duration:       20,
	}
	a := mustBuild(t, rec)
	b := mustBuild(t, rec)
	if !bytes.Equal(a.Archive, b.Archive) || a.Digest != b.Digest {
		t.Fatal("two builds of the same record differ")
	}
	sum := sha256.Sum256(a.Archive)
	if a.Digest != hex.EncodeToString(sum[:]) {
		t.Fatal("digest is not the archive sha256")
	}

	c, err := scorm.NewBuilder(scorm.Options{ModTime: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}).Build(rec)
	if err != nil {
		t.Fatal(err)
	}
	if c.Digest == a.Digest {
		t.Fatal("mod time should change the archive")
	}
}

func TestFingerprint(t *testing.T) {
	rec := scorm.Record{ScormVersion: scorm.Version12, IframeContent: "https://example.org"}
	padded := rec
	padded.Title = "  "
	if scorm.Fingerprint(rec, scorm.Options{}) != scorm.Fingerprint(padded, scorm.Options{}) {
		t.Fatal("records that normalize identically should share a fingerprint")
	}
	other := rec
	other.Title = "Other"
	if scorm.Fingerprint(rec, scorm.Options{}) == scorm.Fingerprint(other, scorm.Options{}) {
		t.Fatal("different titles share a fingerprint")
	}
	if scorm.Fingerprint(rec, scorm.Options{}) == scorm.Fingerprint(rec, scorm.Options{InlineAssetMaxBytes: 1}) {
		t.Fatal("options ignored by fingerprint")
	}
}
