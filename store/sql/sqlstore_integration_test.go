package sqlstore_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"testing"
	"time"

	"github.com/ThiagoDev202/supersdr-prova-tecnica/core"
	"github.com/ThiagoDev202/supersdr-prova-tecnica/migrations"
	sqlstore "github.com/ThiagoDev202/supersdr-prova-tecnica/store/sql"
	persistence "github.com/goliatone/go-persistence-bun"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

type testPersistenceConfig struct {
	driver string
	server string
}

func (c testPersistenceConfig) GetDebug() bool {
	return false
}

func (c testPersistenceConfig) GetDriver() string {
	return c.driver
}

func (c testPersistenceConfig) GetServer() string {
	return c.server
}

func (c testPersistenceConfig) GetPingTimeout() time.Duration {
	return time.Second
}

func (c testPersistenceConfig) GetOtelIdentifier() string {
	return "normalizer-tests"
}

func TestMigrationSmokeApplySQLite(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	var tableName string
	if err := client.DB().NewRaw(
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
		"messages",
	).Scan(context.Background(), &tableName); err != nil {
		t.Fatalf("query sqlite master: %v", err)
	}
	if tableName != "messages" {
		t.Fatalf("expected messages table, got %q", tableName)
	}
}

func TestMessageStore_SaveAndFind(t *testing.T) {
	store, cleanup := newMessageStore(t)
	defer cleanup()
	ctx := context.Background()

	draft := testDraft("3EB0C431C26A1916E5B0")
	saved, err := store.Save(ctx, draft)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if saved.ID == "" {
		t.Fatalf("expected generated id")
	}
	if saved.ReceivedAt.IsZero() {
		t.Fatalf("expected received_at to be set")
	}
	if saved.Classified() {
		t.Fatalf("expected new message to be unclassified")
	}

	byID, err := store.FindByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if byID.ExternalID != draft.ExternalID || byID.Provider != core.ProviderZAPI {
		t.Fatalf("unexpected message %+v", byID)
	}
	if byID.Contact.Phone != "5511999999999" || byID.Contact.Name != "Maria" {
		t.Fatalf("unexpected contact %+v", byID.Contact)
	}
	if byID.Content.Type != core.ContentTypeText || byID.Content.Text != "Quero comprar" {
		t.Fatalf("unexpected content %+v", byID.Content)
	}
	if !byID.Timestamp.Equal(draft.Timestamp) {
		t.Fatalf("expected timestamp %s, got %s", draft.Timestamp, byID.Timestamp)
	}
	if byID.IsFromMe {
		t.Fatalf("expected is_from_me=false")
	}

	byExternal, err := store.FindByProviderAndExternalID(ctx, core.ProviderZAPI, draft.ExternalID)
	if err != nil {
		t.Fatalf("find by external id: %v", err)
	}
	if byExternal.ID != saved.ID {
		t.Fatalf("expected %s, got %s", saved.ID, byExternal.ID)
	}
	if _, err := store.FindByProviderAndExternalID(ctx, core.ProviderMetaWhatsApp, draft.ExternalID); !errors.Is(err, core.ErrMessageNotFound) {
		t.Fatalf("expected not found under another provider, got %v", err)
	}
}

func TestMessageStore_FindByIDMissing(t *testing.T) {
	store, cleanup := newMessageStore(t)
	defer cleanup()

	if _, err := store.FindByID(context.Background(), "00000000-0000-0000-0000-000000000000"); !errors.Is(err, core.ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
	if _, err := store.FindByID(context.Background(), " "); !errors.Is(err, core.ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound for blank id, got %v", err)
	}
}

func TestMessageStore_SaveDuplicateReturnsSentinel(t *testing.T) {
	store, cleanup := newMessageStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.Save(ctx, testDraft("dup-1")); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if _, err := store.Save(ctx, testDraft("dup-1")); !errors.Is(err, core.ErrDuplicateMessage) {
		t.Fatalf("expected ErrDuplicateMessage, got %v", err)
	}

	other := testDraft("dup-1")
	other.Provider = core.ProviderMetaWhatsApp
	if _, err := store.Save(ctx, other); err != nil {
		t.Fatalf("same external id under another provider should save: %v", err)
	}
}

func TestMessageStore_ConcurrentSaveKeepsOneRow(t *testing.T) {
	store, cleanup := newMessageStore(t)
	defer cleanup()
	ctx := context.Background()

	const workers = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		created    int
		duplicates int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Save(ctx, testDraft("race-1"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, core.ErrDuplicateMessage):
				duplicates++
			default:
				t.Errorf("unexpected save error: %v", err)
			}
		}()
	}
	wg.Wait()

	if created != 1 || duplicates != workers-1 {
		t.Fatalf("expected 1 created and %d duplicates, got %d and %d", workers-1, created, duplicates)
	}
}

func TestMessageStore_UpdateClassificationWritesOnce(t *testing.T) {
	store, cleanup := newMessageStore(t)
	defer cleanup()
	ctx := context.Background()

	saved, err := store.Save(ctx, testDraft("classify-1"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	first, err := store.UpdateClassification(ctx, saved.ID, core.Classification{Intent: core.IntentPurchase, Confidence: 0.92})
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if first.Classification == nil || first.Classification.Intent != core.IntentPurchase {
		t.Fatalf("expected purchase intent, got %+v", first.Classification)
	}

	second, err := store.UpdateClassification(ctx, saved.ID, core.Classification{Intent: core.IntentComplaint, Confidence: 0.4})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if second.Classification == nil || second.Classification.Intent != core.IntentPurchase || second.Classification.Confidence != 0.92 {
		t.Fatalf("expected first classification to win, got %+v", second.Classification)
	}
}

func TestMessageStore_UpdateClassificationRejectsInvalidInput(t *testing.T) {
	store, cleanup := newMessageStore(t)
	defer cleanup()
	ctx := context.Background()

	saved, err := store.Save(ctx, testDraft("classify-2"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := store.UpdateClassification(ctx, saved.ID, core.Classification{Intent: core.IntentOther, Confidence: 1.2}); !errors.Is(err, core.ErrInvalidConfidence) {
		t.Fatalf("expected ErrInvalidConfidence, got %v", err)
	}
	if _, err := store.UpdateClassification(ctx, "00000000-0000-0000-0000-000000000000", core.Classification{Intent: core.IntentOther, Confidence: 0.5}); !errors.Is(err, core.ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}
}

func TestRepositoryFactory_CachedRepository(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromPersistence(client)
	if err != nil {
		t.Fatalf("new repository factory: %v", err)
	}
	if _, ok := factory.MessageRepository().(*sqlstore.MessageStore); !ok {
		t.Fatalf("expected plain message store before enabling cache")
	}
	if err := factory.EnableCache(time.Minute); err != nil {
		t.Fatalf("enable cache: %v", err)
	}
	repo := factory.MessageRepository()
	if _, ok := repo.(*sqlstore.CachedMessageStore); !ok {
		t.Fatalf("expected cached message store, got %T", repo)
	}

	ctx := context.Background()
	saved, err := repo.Save(ctx, testDraft("cached-1"))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := repo.FindByID(ctx, saved.ID); err != nil {
		t.Fatalf("find: %v", err)
	}
	updated, err := repo.UpdateClassification(ctx, saved.ID, core.Classification{Intent: core.IntentQuestion, Confidence: 0.7})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	reloaded, err := repo.FindByID(ctx, saved.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.Classified() || reloaded.Classification.Intent != updated.Classification.Intent {
		t.Fatalf("expected classification after eviction, got %+v", reloaded.Classification)
	}
}

func TestRepositoryFactory_FromDB(t *testing.T) {
	client, cleanup := newSQLiteClient(t)
	defer cleanup()

	factory, err := sqlstore.NewRepositoryFactoryFromDB(client.DB())
	if err != nil {
		t.Fatalf("new repository factory from db: %v", err)
	}
	if factory.DB() == nil || factory.MessageStore() == nil {
		t.Fatalf("expected db and message store to be set")
	}
	if _, err := sqlstore.NewRepositoryFactoryFromDB(nil); err == nil {
		t.Fatalf("expected error for nil db")
	}
}

func TestRepositoryFactory_RejectsUnknownClient(t *testing.T) {
	if _, err := sqlstore.NewRepositoryFactory().BuildStores("not-a-db"); err == nil {
		t.Fatalf("expected unsupported client error")
	}
	if _, err := sqlstore.NewRepositoryFactory().BuildStores(nil); err == nil {
		t.Fatalf("expected missing client error")
	}
}

func testDraft(externalID string) core.MessageDraft {
	return core.MessageDraft{
		ExternalID: externalID,
		Provider:   core.ProviderZAPI,
		Contact:    core.Contact{Phone: "5511999999999", Name: "Maria"},
		Content:    core.Content{Type: core.ContentTypeText, Text: "Quero comprar"},
		Timestamp:  time.UnixMilli(1708000000000).UTC(),
	}
}

func newMessageStore(t *testing.T) (*sqlstore.MessageStore, func()) {
	t.Helper()
	client, cleanup := newSQLiteClient(t)
	store, err := sqlstore.NewMessageStore(client.DB())
	if err != nil {
		cleanup()
		t.Fatalf("new message store: %v", err)
	}
	return store, cleanup
}

func newSQLiteClient(t *testing.T) (*persistence.Client, func()) {
	t.Helper()

	dsn := fmt.Sprintf(
		"file:normalizer-test-%d?mode=memory&cache=shared&_foreign_keys=on",
		time.Now().UnixNano(),
	)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("open sqlite db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := testPersistenceConfig{
		driver: "sqlite3",
		server: dsn,
	}
	client, err := persistence.New(cfg, sqlDB, sqlitedialect.New())
	if err != nil {
		_ = sqlDB.Close()
		t.Fatalf("new persistence client: %v", err)
	}

	ctx := context.Background()
	if err := migrations.RegisterDialect(ctx, func(fsys fs.FS) {
		client.RegisterSQLMigrations(fsys)
	}, migrations.DialectSQLite); err != nil {
		_ = client.Close()
		t.Fatalf("register migrations: %v", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		t.Fatalf("migrate: %v", err)
	}

	return client, func() {
		_ = client.Close()
	}
}
