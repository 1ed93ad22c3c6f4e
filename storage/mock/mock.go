package mock

import (
	"context"

	"github.com/sig-0/ufrates/storage/types"
)

type (
	GetDelegate  func(context.Context, types.LookupKey) (string, bool, error)
	SaveDelegate func(context.Context, types.LookupKey, string) error
	LenDelegate  func() int
)

type Storage struct {
	GetFn  GetDelegate
	SaveFn SaveDelegate
	LenFn  LenDelegate
}

func (m *Storage) Get(ctx context.Context, key types.LookupKey) (string, bool, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}

	return "", false, nil
}

func (m *Storage) Save(ctx context.Context, key types.LookupKey, value string) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, key, value)
	}

	return nil
}

func (m *Storage) Len() int {
	if m.LenFn != nil {
		return m.LenFn()
	}

	return 0
}
