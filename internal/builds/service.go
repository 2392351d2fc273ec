package builds

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/mind-engage/web2scorm/internal/logger"
	"github.com/mind-engage/web2scorm/internal/scorm"
	"github.com/mind-engage/web2scorm/internal/storage"
	syncx "github.com/mind-engage/web2scorm/internal/sync"
)

// ArtifactCache stores finished archives keyed by record fingerprint.
type ArtifactCache interface {
	Get(ctx context.Context, fingerprint string) ([]byte, bool, error)
	Set(ctx context.Context, fingerprint string, archive []byte) error
}

// EventSink receives a PackageBuilt event per stored build.
type EventSink interface {
	AppendJSON(ctx context.Context, typ, key string, payload any) error
}

type Service struct {
	Options scorm.Options
	Store   Store
	Blobs   storage.BlobStore
	Cache   ArtifactCache // optional
	Events  EventSink     // optional
	Log     *logger.Logger
	Now     func() time.Time
	NewID   func() string
}

// Result is a stored build and its archive.
type Result struct {
	Build   Build
	Archive []byte
	Cached  bool
}

func NewService(opts scorm.Options, store Store, blobs storage.BlobStore, log *logger.Logger) *Service {
	return &Service{Options: opts, Store: store, Blobs: blobs, Log: log}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}

func (s *Service) log() *logger.Logger {
	if s.Log == nil {
		return logger.Nop()
	}
	return s.Log
}

// Build assembles rec, stores the archive and records the build. Invalid
// records fail with an error wrapping scorm.ErrInvalidConfig and leave nothing behind.
func (s *Service) Build(ctx context.Context, rec scorm.Record, builtBy string) (Result, error) {
	rec = rec.Normalize()
	if err := rec.Validate(); err != nil {
		return Result{}, err
	}

	fp := scorm.Fingerprint(rec, s.Options)
	archive, cached := s.cached(ctx, fp)
	if !cached {
		pkg, err := scorm.NewBuilder(s.Options).Build(rec)
		if err != nil {
			return Result{}, err
		}
		archive = pkg.Archive
		if s.Cache != nil {
			if err := s.Cache.Set(ctx, fp, archive); err != nil {
				s.log().Warn("cache store failed", "fingerprint", fp, "error", err)
			}
		}
	}

	sum := sha256.Sum256(archive)
	b := Build{
		ID:           s.newID(),
		Title:        rec.Title,
		ScormVersion: string(rec.ScormVersion),
		PackageType:  string(rec.PackageType),
		FileName:     scorm.FileName(rec),
		Digest:       hex.EncodeToString(sum[:]),
		SizeBytes:    int64(len(archive)),
		BuiltBy:      builtBy,
		CreatedAt:    s.now().UTC(),
	}
	b.BlobKey = storage.PackageKey(b.ID)

	if _, err := s.Blobs.Put(b.BlobKey, bytes.NewReader(archive)); err != nil {
		return Result{}, fmt.Errorf("store archive: %w", err)
	}
	if err := s.Store.Insert(ctx, b); err != nil {
		if derr := s.Blobs.Delete(b.BlobKey); derr != nil {
			s.log().Warn("orphaned archive", "key", b.BlobKey, "error", derr)
		}
		return Result{}, fmt.Errorf("record build: %w", err)
	}
	if s.Events != nil {
		payload := map[string]any{"digest": b.Digest, "version": b.ScormVersion, "type": b.PackageType, "size": b.SizeBytes}
		if err := s.Events.AppendJSON(ctx, syncx.TypePackageBuilt, b.ID, payload); err != nil {
			s.log().Warn("event append failed", "build_id", b.ID, "error", err)
		}
	}

	s.log().Info("package built",
		"build_id", b.ID,
		"version", b.ScormVersion,
		"type", b.PackageType,
		"size", b.SizeBytes,
		"digest", b.Digest,
		"cached", cached,
	)
	return Result{Build: b, Archive: archive, Cached: cached}, nil
}

func (s *Service) cached(ctx context.Context, fp string) ([]byte, bool) {
	if s.Cache == nil {
		return nil, false
	}
	b, ok, err := s.Cache.Get(ctx, fp)
	if err != nil {
		s.log().Warn("cache lookup failed", "fingerprint", fp, "error", err)
		return nil, false
	}
	return b, ok
}

func (s *Service) Get(ctx context.Context, id string) (Build, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, opts ListOpts) ([]Build, error) {
	return s.Store.List(ctx, opts)
}

// Open returns the stored archive of build id. The caller closes it.
func (s *Service) Open(ctx context.Context, id string) (Build, io.ReadCloser, error) {
	b, err := s.Store.Get(ctx, id)
	if err != nil {
		return Build{}, nil, err
	}
	rc, err := s.Blobs.Get(b.BlobKey)
	if err != nil {
		return Build{}, nil, fmt.Errorf("open archive: %w", err)
	}
	return b, rc, nil
}
