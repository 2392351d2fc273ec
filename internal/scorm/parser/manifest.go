// Package parser reads SCORM packages back: it unzips archives, parses
// imsmanifest.xml for either SCORM version and cross-checks the declared
// hrefs against the archive contents. It does not import the builder.
package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

const manifestName = "imsmanifest.xml"

var ErrNoManifest = errors.New("imsmanifest.xml not found")

type Manifest struct {
	Identifier    string
	SchemaVersion string
	Organizations []Organization
	Resources     []ManifestResource
}

type Organization struct {
	Identifier string
	Title      string
}

type ManifestResource struct {
	Identifier string
	Href       string
	Type       string
	ScormType  string
	Files      []string
}

type imsManifest struct {
	XMLName    xml.Name `xml:"manifest"`
	Identifier string   `xml:"identifier,attr"`
	Metadata   struct {
		SchemaVersion string `xml:"schemaversion"`
	} `xml:"metadata"`
	Organizations []imsOrganization `xml:"organizations>organization"`
	Resources     []imsResource     `xml:"resources>resource"`
}

type imsOrganization struct {
	Identifier string `xml:"identifier,attr"`
	Title      string `xml:"title"`
}

type imsResource struct {
	Identifier string    `xml:"identifier,attr"`
	Href       string    `xml:"href,attr"`
	Type       string    `xml:"type,attr"`
	ScormType  string    `xml:"scormtype,attr"` // SCORM 1.2 spelling
	ScormType4 string    `xml:"scormType,attr"` // SCORM 2004 spelling
	Files      []imsFile `xml:"file"`
}

type imsFile struct {
	Href string `xml:"href,attr"`
}

// ParseManifest decodes an imsmanifest.xml document.
func ParseManifest(b []byte) (Manifest, error) {
	var mf imsManifest
	if err := xml.Unmarshal(b, &mf); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	out := Manifest{
		Identifier:    mf.Identifier,
		SchemaVersion: strings.TrimSpace(mf.Metadata.SchemaVersion),
	}
	for _, o := range mf.Organizations {
		out.Organizations = append(out.Organizations, Organization{Identifier: o.Identifier, Title: strings.TrimSpace(o.Title)})
	}
	for _, r := range mf.Resources {
		res := ManifestResource{
			Identifier: r.Identifier,
			Href:       r.Href,
			Type:       r.Type,
			ScormType:  r.ScormType,
		}
		if res.ScormType == "" {
			res.ScormType = r.ScormType4
		}
		for _, f := range r.Files {
			res.Files = append(res.Files, f.Href)
		}
		out.Resources = append(out.Resources, res)
	}
	return out, nil
}

// Hrefs returns every path the manifest points at, deduplicated and sorted.
func (m Manifest) Hrefs() []string {
	set := map[string]bool{}
	for _, r := range m.Resources {
		if r.Href != "" {
			set[r.Href] = true
		}
		for _, f := range r.Files {
			if f != "" {
				set[f] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// Package is an opened archive: its manifest plus the size of every entry.
type Package struct {
	Manifest Manifest
	Files    map[string]int64
}

// Report lists the differences between manifest and archive.
type Report struct {
	Missing    []string `json:"missing,omitempty"`    // declared but absent
	Undeclared []string `json:"undeclared,omitempty"` // present but not declared
}

func (r Report) OK() bool { return len(r.Missing) == 0 && len(r.Undeclared) == 0 }

// Read opens a zip archive held in r.
func Read(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	p := &Package{Files: map[string]int64{}}
	var raw []byte
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if f.Name == manifestName {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			raw, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, err
			}
			continue
		}
		p.Files[f.Name] = int64(f.UncompressedSize64)
	}
	if raw == nil {
		return nil, ErrNoManifest
	}
	if p.Manifest, err = ParseManifest(raw); err != nil {
		return nil, err
	}
	return p, nil
}

// ReadBytes is Read for an in-memory archive.
func ReadBytes(b []byte) (*Package, error) {
	return Read(bytes.NewReader(b), int64(len(b)))
}

// Check compares manifest hrefs with the archive entries.
func (p *Package) Check() Report {
	var rep Report
	declared := map[string]bool{}
	for _, h := range p.Manifest.Hrefs() {
		declared[h] = true
		if _, ok := p.Files[h]; !ok {
			rep.Missing = append(rep.Missing, h)
		}
	}
	for name := range p.Files {
		if !declared[name] {
			rep.Undeclared = append(rep.Undeclared, name)
		}
	}
	sort.Strings(rep.Undeclared)
	return rep
}

// Extract unpacks the archive into dir, refusing entries that escape it.
func Extract(r io.ReaderAt, size int64, dir string) error {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, f := range zr.File {
		name := path.Clean(f.Name)
		if path.IsAbs(name) || name == ".." || strings.HasPrefix(name, "../") || strings.ContainsRune(f.Name, '\\') {
			return fmt.Errorf("unsafe archive path %q", f.Name)
		}
		dst := filepath.Join(dir, filepath.FromSlash(name))
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dst, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		if err := extractFile(f, dst); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(f *zip.File, dst string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
