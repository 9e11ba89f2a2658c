package usecase_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	encryptionDomain "github.com/allisson/fieldcrypt/internal/encryption/domain"
	"github.com/allisson/fieldcrypt/internal/encryption/encoding"
	"github.com/allisson/fieldcrypt/internal/encryption/field"
	"github.com/allisson/fieldcrypt/internal/encryption/service"
	apperrors "github.com/allisson/fieldcrypt/internal/errors"
	"github.com/allisson/fieldcrypt/internal/metrics"
	"github.com/allisson/fieldcrypt/internal/reencryption/domain"
	"github.com/allisson/fieldcrypt/internal/reencryption/usecase"
	"github.com/allisson/fieldcrypt/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var nameDescriptor = field.NewDescriptor[string]("name", encoding.NewStringEncoder())

// testRecord is an in-memory model instance with one encrypted field.
type testRecord struct {
	name field.Slots[string]
}

func (r *testRecord) Columns() []field.Column {
	return []field.Column{field.Bind(nameDescriptor, &r.name)}
}

// fakeSource serves records from memory and counts saves.
type fakeSource struct {
	mu      sync.Mutex
	name    string
	fields  []string
	records []*testRecord
	saved   int
	listErr error
}

func (s *fakeSource) Name() string              { return s.name }
func (s *fakeSource) EncryptedFields() []string { return s.fields }

func (s *fakeSource) List(ctx context.Context, clientID string) ([]domain.Record, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]domain.Record, len(s.records))
	for ix, record := range s.records {
		out[ix] = record
	}
	return out, nil
}

func (s *fakeSource) Save(ctx context.Context, record domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saved++
	return nil
}

func (s *fakeSource) savedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saved
}

// passthroughTxManager runs the function without a real transaction.
type passthroughTxManager struct{}

func (passthroughTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newEngine(t *testing.T, router *service.Router, sources ...usecase.ModelSource) usecase.ReencryptionUseCase {
	t.Helper()

	catalog := usecase.NewCatalog()
	for _, source := range sources {
		require.NoError(t, catalog.Register(source))
	}
	return usecase.NewReencryptionUseCase(
		catalog,
		router,
		passthroughTxManager{},
		metrics.NewNoOpCryptoMetrics(),
		testutil.DiscardLogger(),
	)
}

func plaintextRecord(t *testing.T, value string) *testRecord {
	t.Helper()

	record := &testRecord{}
	require.NoError(t, nameDescriptor.Set(context.Background(), &record.name, value))
	return record
}

func encryptedRecord(t *testing.T, router *service.Router, clientID, value string) *testRecord {
	t.Helper()

	encryptor, err := router.Lookup(clientID)
	require.NoError(t, err)
	ctx := field.WithEncryptor(context.Background(), clientID, encryptor)

	record := &testRecord{}
	require.NoError(t, nameDescriptor.Set(ctx, &record.name, value))
	return record
}

func TestReencryptionUseCaseValidateClient(t *testing.T) {
	t.Run("configured client passes", func(t *testing.T) {
		registry := testutil.NewRegistry(t, []string{"client1"}, []string{"key-c1"}, []string{""})
		router := testutil.NewRouter(t, registry)
		engine := newEngine(t, router)

		assert.NoError(t, engine.ValidateClient("client1"))

		err := engine.ValidateClient("unknown")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, encryptionDomain.ErrNoKeyConfig))
	})

	t.Run("default entry does not stand in for a missing client entry", func(t *testing.T) {
		registry := testutil.NewRegistry(t, []string{"default"}, []string{"key-default"}, []string{""})
		router := testutil.NewRouter(t, registry)
		engine := newEngine(t, router)

		// Field operations for this client would route through the default
		// entry, but it has no key configuration of its own to rotate under.
		err := engine.ValidateClient("unknown-client")
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, encryptionDomain.ErrNoKeyConfig))

		assert.NoError(t, engine.ValidateClient("default"))
	})
}

func TestReencryptionUseCaseValidateCoverage(t *testing.T) {
	registry := testutil.NewRegistry(t, []string{"client1"}, []string{"key-c1"}, []string{""})
	router := testutil.NewRouter(t, registry)
	engine := newEngine(t, router,
		&fakeSource{name: "employee", fields: []string{"name"}},
		&fakeSource{name: "audit_log", fields: nil},
	)

	t.Run("full plan passes", func(t *testing.T) {
		assert.NoError(t, engine.ValidateCoverage([]string{"employee"}))
	})

	t.Run("models without encrypted fields need no coverage", func(t *testing.T) {
		assert.NoError(t, engine.ValidateCoverage([]string{"employee"}))
	})

	t.Run("missing model fails", func(t *testing.T) {
		err := engine.ValidateCoverage(nil)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, domain.ErrModelNotCovered))
		assert.Contains(t, err.Error(), "employee")
	})
}

func TestReencryptionUseCaseRun(t *testing.T) {
	registry := testutil.NewRegistry(t,
		[]string{"client1"},
		[]string{"key-new;key-old"},
		[]string{""},
	)
	router := testutil.NewRouter(t, registry)

	oldRegistry := testutil.NewRegistry(t, []string{"client1"}, []string{"key-old"}, []string{""})
	oldRouter := testutil.NewRouter(t, oldRegistry)

	t.Run("mixed instances are classified and rewritten", func(t *testing.T) {
		source := &fakeSource{
			name:   "employee",
			fields: []string{"name"},
			records: []*testRecord{
				plaintextRecord(t, "alice"),
				encryptedRecord(t, oldRouter, "client1", "bob"),
				encryptedRecord(t, oldRouter, "client1", "carol"),
			},
		}
		engine := newEngine(t, router, source)

		stats, err := engine.Run(context.Background(), "client1", false)
		require.NoError(t, err)
		require.Len(t, stats, 1)

		assert.Equal(t, "employee", stats[0].ModelName)
		assert.Equal(t, int64(3), stats[0].TotalInstancesFound)
		assert.Equal(t, int64(1), stats[0].InstancesFoundToBeUnencrypted)
		assert.Equal(t, int64(3), stats[0].InstancesReencrypted)
		assert.Equal(t, 3, source.savedCount())

		for _, record := range source.records {
			require.NotNil(t, record.name.Encrypted)
			envelope, err := encryptionDomain.UnmarshalEnvelope(record.name.Encrypted)
			require.NoError(t, err)
			assert.Equal(t, "key-new", envelope.WrappingKeyID())
		}
	})

	t.Run("second run is idempotent", func(t *testing.T) {
		source := &fakeSource{
			name:    "employee",
			fields:  []string{"name"},
			records: []*testRecord{plaintextRecord(t, "alice")},
		}
		engine := newEngine(t, router, source)

		_, err := engine.Run(context.Background(), "client1", false)
		require.NoError(t, err)

		stats, err := engine.Run(context.Background(), "client1", false)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats[0].TotalInstancesFound)
		assert.Equal(t, int64(0), stats[0].InstancesFoundToBeUnencrypted)
		assert.Equal(t, int64(1), stats[0].InstancesReencrypted)
	})

	t.Run("dry run classifies without writing", func(t *testing.T) {
		record := plaintextRecord(t, "alice")
		source := &fakeSource{
			name:    "employee",
			fields:  []string{"name"},
			records: []*testRecord{record},
		}
		engine := newEngine(t, router, source)

		stats, err := engine.Run(context.Background(), "client1", true)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats[0].TotalInstancesFound)
		assert.Equal(t, int64(1), stats[0].InstancesFoundToBeUnencrypted)
		assert.Equal(t, int64(0), stats[0].InstancesReencrypted)
		assert.Equal(t, 0, source.savedCount())
		assert.NotNil(t, record.name.Unencrypted, "dry run leaves instances untouched")
	})

	t.Run("unknown client fails before touching models", func(t *testing.T) {
		source := &fakeSource{name: "employee", fields: []string{"name"}}
		engine := newEngine(t, router, source)

		_, err := engine.Run(context.Background(), "unknown", false)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, encryptionDomain.ErrNoKeyConfig))
	})

	t.Run("model failure aborts the run", func(t *testing.T) {
		failing := &fakeSource{
			name:    "employee",
			fields:  []string{"name"},
			listErr: apperrors.New("storage down"),
		}
		engine := newEngine(t, router, failing)

		_, err := engine.Run(context.Background(), "client1", false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "employee")
	})

	t.Run("cancellation stops between instances", func(t *testing.T) {
		source := &fakeSource{
			name:    "employee",
			fields:  []string{"name"},
			records: []*testRecord{plaintextRecord(t, "alice")},
		}
		engine := newEngine(t, router, source)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := engine.Run(ctx, "client1", false)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, context.Canceled))
	})

	t.Run("models run independently", func(t *testing.T) {
		first := &fakeSource{
			name:    "employee",
			fields:  []string{"name"},
			records: []*testRecord{plaintextRecord(t, "alice")},
		}
		second := &fakeSource{
			name:    "contractor",
			fields:  []string{"name"},
			records: []*testRecord{plaintextRecord(t, "bob"), plaintextRecord(t, "carol")},
		}
		engine := newEngine(t, router, first, second)

		stats, err := engine.Run(context.Background(), "client1", false)
		require.NoError(t, err)
		require.Len(t, stats, 2)

		// Catalog order is by name.
		assert.Equal(t, "contractor", stats[0].ModelName)
		assert.Equal(t, int64(2), stats[0].TotalInstancesFound)
		assert.Equal(t, "employee", stats[1].ModelName)
		assert.Equal(t, int64(1), stats[1].TotalInstancesFound)
	})
}

func TestReencryptionUseCaseAudit(t *testing.T) {
	registry := testutil.NewRegistry(t, []string{"client1"}, []string{"key-c1"}, []string{""})
	router := testutil.NewRouter(t, registry)
	engine := newEngine(t, router,
		&fakeSource{name: "employee", fields: []string{"name", "salary"}},
		&fakeSource{name: "contractor", fields: []string{"name"}},
	)

	summaries := engine.Audit()
	require.Len(t, summaries, 2)
	assert.Equal(t, "contractor", summaries[0].ModelName)
	assert.Equal(t, []string{"name"}, summaries[0].EncryptedFields)
	assert.Equal(t, "employee", summaries[1].ModelName)
	assert.Equal(t, []string{"name", "salary"}, summaries[1].EncryptedFields)
}

func TestCatalogRegister(t *testing.T) {
	catalog := usecase.NewCatalog()
	require.NoError(t, catalog.Register(&fakeSource{name: "employee"}))

	err := catalog.Register(&fakeSource{name: "employee"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, domain.ErrDuplicateModel))
	assert.Equal(t, 1, catalog.Len())
}
