package runtime

import (
	"context"
	"fmt"

	"github.com/harunnryd/solace/internal/config"
)

type Builder interface {
	WithContext(ctx context.Context) Builder
	WithConfig(cfg *config.Config) Builder
	Build() (*Components, error)
}

type DefaultBuilder struct {
	ctx context.Context
	cfg *config.Config
}

func NewBuilder() Builder {
	return &DefaultBuilder{}
}

func (b *DefaultBuilder) WithContext(ctx context.Context) Builder {
	b.ctx = ctx
	return b
}

func (b *DefaultBuilder) WithConfig(cfg *config.Config) Builder {
	b.cfg = cfg
	return b
}

func (b *DefaultBuilder) Build() (*Components, error) {
	if b.ctx == nil {
		b.ctx = context.Background()
	}
	if b.cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	return NewComponents(b.ctx, b.cfg)
}
