// Package scorm assembles SCORM 1.2 and 2004 packages from a configuration
// record: manifest, learner-facing content, the runtime bridge that talks to
// the LMS, and the zip archive holding them.
//
// A build is a pure function of the record. The same record always produces
// the same archive bytes; the only timestamp is the zip entry time, which
// defaults to DefaultModTime.
package scorm

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

type Options struct {
	// InlineAssetMaxBytes is the largest logo inlined as a data URI.
	// Zero means DefaultInlineAssetMaxBytes; negative never inlines.
	InlineAssetMaxBytes int
	// ModTime is stamped on archive entries. Zero means DefaultModTime.
	ModTime time.Time
}

// Builder runs the assembly pipeline. It holds only immutable options and
// is safe for concurrent use.
type Builder struct {
	opts Options
}

func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts}
}

// Package is the result of one build.
type Package struct {
	Record   Record // normalized
	Manifest []byte
	Content  Content
	Archive  []byte
	Digest   string // sha256 of Archive, hex
}

// FileName suggests an archive name; callers are free to ignore it.
func (p *Package) FileName() string {
	return FileName(p.Record)
}

// FileName is the suggested archive name for a normalized record.
func FileName(rec Record) string {
	return Slug(rec.Title) + "-scorm" + string(rec.ScormVersion) + ".zip"
}

// Build validates rec and produces the archive. Configuration defects are
// returned as *ConfigError before any output is produced.
func (b *Builder) Build(rec Record) (*Package, error) {
	rec = rec.Normalize()
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	dialect, err := DialectFor(rec.ScormVersion)
	if err != nil {
		return nil, err
	}

	bridge, err := BuildBridge(dialect)
	if err != nil {
		return nil, err
	}

	var logo AssetRef
	if rec.PackageType == PackageIframeWithCode {
		if logo, err = PlanLogo(rec.Logo, b.opts.InlineAssetMaxBytes); err != nil {
			return nil, err
		}
	}

	content, err := AssembleContent(rec, bridge, logo)
	if err != nil {
		return nil, err
	}

	manifest, err := BuildManifest(rec, dialect, content.Entry, content.Paths())
	if err != nil {
		return nil, err
	}

	archive, err := WritePackage(manifest, content.Files, b.opts.ModTime)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(archive)
	return &Package{
		Record:   rec,
		Manifest: manifest,
		Content:  content,
		Archive:  archive,
		Digest:   hex.EncodeToString(sum[:]),
	}, nil
}

// Build runs a build with default options.
func Build(rec Record) (*Package, error) {
	return NewBuilder(Options{}).Build(rec)
}

// Fingerprint identifies the archive a record would produce under opts,
// without building it. Records that normalize identically share a fingerprint.
func Fingerprint(rec Record, opts Options) string {
	rec = rec.Normalize()
	h := sha256.New()
	for _, v := range []string{
		string(rec.ScormVersion), rec.Title, rec.Description, strconv.Itoa(rec.Duration), string(rec.PackageType),
		rec.IframeContent, strconv.FormatBool(rec.AutoCompleteEnabled), strconv.Itoa(rec.AutoCompleteDuration),
		rec.CompletionCode, rec.CodePromptMessage, rec.AlertMessageRight, rec.AlertMessageWrong, rec.EndMessage,
		rec.Logo, rec.HeaderBgColor, rec.HeaderTextColor, rec.ButtonBgColor, rec.ButtonTextColor, rec.ButtonText,
		rec.YouTubeVideoID, strconv.Itoa(opts.InlineAssetMaxBytes), opts.ModTime.UTC().Format(time.RFC3339Nano),
	} {
		h.Write([]byte(v))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
