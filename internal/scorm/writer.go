package scorm

import (
	"archive/zip"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/mind-engage/web2scorm/internal/scorm/parser"
)

const (
	ContentDir = "content"
	AssetsDir  = ContentDir + "/assets"

	// DefaultInlineAssetMaxBytes is the largest logo kept as a data URI.
	DefaultInlineAssetMaxBytes = 32 * 1024
)

// ErrPathMismatch means the manifest and the archive disagree on a path.
// It is an engine defect, never a user error.
var ErrPathMismatch = errors.New("manifest and archive paths differ")

// DefaultModTime is stamped on every archive entry so rebuilds are byte-identical.
var DefaultModTime = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

type File struct {
	Path string
	Data []byte
}

// AssetRef tells the stylesheet how to reference an asset. File is set
// only when the asset is shipped as a standalone archive entry.
type AssetRef struct {
	CSSURL string
	File   *File
}

var imageExt = map[string]string{
	"image/png":     ".png",
	"image/jpeg":    ".jpg",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
	"image/x-icon":  ".ico",
	"image/bmp":     ".bmp",
	"image/avif":    ".avif",
}

// PlanLogo decides once, for the whole build, whether the logo is inlined in
// the stylesheet or written under content/assets. inlineMax < 0 never inlines.
func PlanLogo(logo string, inlineMax int) (AssetRef, error) {
	if logo == "" {
		return AssetRef{}, nil
	}
	if inlineMax == 0 {
		inlineMax = DefaultInlineAssetMaxBytes
	}
	if !strings.HasPrefix(strings.ToLower(logo), "data:") {
		u, err := url.Parse(logo)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || strings.ContainsAny(logo, "\"\\\n\r") {
			return AssetRef{}, &ConfigError{Fields: []FieldError{{Field: "logo", Reason: "must be a data URI or an http(s) URL"}}}
		}
		return AssetRef{CSSURL: logo}, nil
	}

	mime, data, err := decodeDataURI(logo)
	if err != nil {
		return AssetRef{}, &ConfigError{Fields: []FieldError{{Field: "logo", Reason: err.Error()}}}
	}
	ext, ok := imageExt[mime]
	if !ok {
		return AssetRef{}, &ConfigError{Fields: []FieldError{{Field: "logo", Reason: fmt.Sprintf("unsupported image type %q", mime)}}}
	}
	if inlineMax > 0 && len(data) <= inlineMax {
		return AssetRef{CSSURL: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)}, nil
	}
	name := "logo" + ext
	return AssetRef{
		CSSURL: "assets/" + name,
		File:   &File{Path: AssetsDir + "/" + name, Data: data},
	}, nil
}

func decodeDataURI(s string) (string, []byte, error) {
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return "", nil, errors.New("malformed data URI")
	}
	meta, payload := s[len("data:"):comma], s[comma+1:]
	params := strings.Split(meta, ";")
	mime := strings.ToLower(strings.TrimSpace(params[0]))
	isBase64 := false
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}
	if isBase64 {
		clean := strings.Map(func(r rune) rune {
			switch r {
			case ' ', '\n', '\r', '\t':
				return -1
			}
			return r
		}, payload)
		data, err := base64.StdEncoding.DecodeString(clean)
		if err != nil {
			return "", nil, fmt.Errorf("data URI payload: %w", err)
		}
		return mime, data, nil
	}
	data, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("data URI payload: %w", err)
	}
	return mime, []byte(data), nil
}

// WritePackage zips the manifest and files. Every file must be declared by
// the manifest and every manifest href must be written, otherwise nothing is
// returned. Entries are sorted and stamped with modTime (DefaultModTime when
// zero) so identical input yields identical bytes.
func WritePackage(manifest []byte, files []File, modTime time.Time) ([]byte, error) {
	if err := checkPaths(manifest, files); err != nil {
		return nil, err
	}
	if modTime.IsZero() {
		modTime = DefaultModTime
	}

	sorted := append([]File(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	entries := append([]File{{Path: ManifestName, Data: manifest}}, sorted...)
	for _, f := range entries {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Path,
			Method:   zip.Deflate,
			Modified: modTime,
		})
		if err != nil {
			return nil, fmt.Errorf("zip %s: %w", f.Path, err)
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, fmt.Errorf("zip %s: %w", f.Path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ManifestHrefs lists every path declared by a manifest document.
func ManifestHrefs(manifest []byte) ([]string, error) {
	m, err := parser.ParseManifest(manifest)
	if err != nil {
		return nil, err
	}
	return m.Hrefs(), nil
}

func checkPaths(manifest []byte, files []File) error {
	declared, err := ManifestHrefs(manifest)
	if err != nil {
		return err
	}
	written := make(map[string]bool, len(files))
	for _, f := range files {
		p := f.Path
		if p == "" || p == ManifestName || path.IsAbs(p) || path.Clean(p) != p || strings.HasPrefix(p, "../") {
			return fmt.Errorf("%w: invalid archive path %q", ErrPathMismatch, p)
		}
		if written[p] {
			return fmt.Errorf("%w: duplicate archive path %q", ErrPathMismatch, p)
		}
		written[p] = true
	}
	seen := make(map[string]bool, len(declared))
	for _, href := range declared {
		if !written[href] {
			return fmt.Errorf("%w: manifest references %q which is not in the archive", ErrPathMismatch, href)
		}
		seen[href] = true
	}
	for p := range written {
		if !seen[p] {
			return fmt.Errorf("%w: archive file %q is not declared in the manifest", ErrPathMismatch, p)
		}
	}
	return nil
}
