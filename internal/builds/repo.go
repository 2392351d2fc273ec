package builds

import "context"

type Store interface {
	Insert(ctx context.Context, b Build) error
	Get(ctx context.Context, id string) (Build, error) // ErrNotFound
	List(ctx context.Context, opts ListOpts) ([]Build, error) // newest first
}

func clampLimit(n int) int {
	switch {
	case n <= 0:
		return 50
	case n > 500:
		return 500
	}
	return n
}
