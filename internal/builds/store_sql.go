package builds

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Insert(ctx context.Context, b Build) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO package_builds
		(id,title,scorm_version,package_type,file_name,blob_key,digest,size_bytes,built_by,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		b.ID, b.Title, b.ScormVersion, b.PackageType, b.FileName, b.BlobKey, b.Digest, b.SizeBytes, b.BuiltBy,
		b.CreatedAt.UnixMilli())
	return err
}

func (s *SQLStore) Get(ctx context.Context, id string) (Build, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id,title,scorm_version,package_type,file_name,blob_key,digest,size_bytes,built_by,created_at
		FROM package_builds WHERE id=$1`, id)
	b, err := scanBuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Build{}, ErrNotFound
	}
	return b, err
}

func (s *SQLStore) List(ctx context.Context, opts ListOpts) ([]Build, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id,title,scorm_version,package_type,file_name,blob_key,digest,size_bytes,built_by,created_at
		FROM package_builds
		WHERE ($1 = '' OR scorm_version = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, opts.Version, clampLimit(opts.Limit), max(opts.Offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Build{}
	for rows.Next() {
		b, err := scanBuild(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBuild(sc scanner) (Build, error) {
	var b Build
	var created int64
	if err := sc.Scan(&b.ID, &b.Title, &b.ScormVersion, &b.PackageType, &b.FileName, &b.BlobKey, &b.Digest,
		&b.SizeBytes, &b.BuiltBy, &created); err != nil {
		return Build{}, err
	}
	b.CreatedAt = time.UnixMilli(created).UTC()
	return b, nil
}
