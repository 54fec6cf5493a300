package sqlstore

import (
	"fmt"
	"time"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	persistence "github.com/goliatone/go-persistence-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db *bun.DB

	messageStore *MessageStore
	cached       *CachedMessageStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if _, err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

// BuildStores accepts a *bun.DB or anything exposing DB() *bun.DB, such as a
// go-persistence-bun client.
func (f *RepositoryFactory) BuildStores(persistenceClient any) (*RepositoryFactory, error) {
	if f == nil {
		return nil, fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return nil, err
		}
		f.db = db
	}
	if f.messageStore != nil {
		return f, nil
	}
	store, err := NewMessageStore(f.db)
	if err != nil {
		return nil, err
	}
	f.messageStore = store
	return f, nil
}

// EnableCache wraps the message store with a read-through cache. A zero ttl
// keeps the cache service default.
func (f *RepositoryFactory) EnableCache(ttl time.Duration) error {
	if f == nil || f.messageStore == nil {
		return fmt.Errorf("sqlstore: stores are not built")
	}
	config := repositorycache.DefaultConfig()
	if ttl > 0 {
		config.TTL = ttl
	}
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		return fmt.Errorf("sqlstore: new cache service: %w", err)
	}
	cached, err := NewCachedMessageStore(f.messageStore, service)
	if err != nil {
		return err
	}
	f.cached = cached
	return nil
}

// MessageRepository returns the cached store when enabled, otherwise the plain
// SQL store.
func (f *RepositoryFactory) MessageRepository() core.MessageRepository {
	if f == nil {
		return nil
	}
	if f.cached != nil {
		return f.cached
	}
	if f.messageStore == nil {
		return nil
	}
	return f.messageStore
}

func (f *RepositoryFactory) MessageStore() *MessageStore {
	if f == nil {
		return nil
	}
	return f.messageStore
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
