package session

import "context"

// Store 抽象了会话注册表。同一会话同一时刻至多一个写者，通过 Claim/Release 协调。
type Store interface {
	Create(ctx context.Context, session *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Claim(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, session *Session) error
	Release(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, opts ListOptions) ([]*Session, error)
	Stats(ctx context.Context, opts ListOptions) (Stats, error)
	Close() error
}
