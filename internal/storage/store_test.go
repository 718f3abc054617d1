package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	key, err := DeriveKey("test-passphrase")
	require.NoError(t, err)
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), key)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAnalysisRoundTrip(t *testing.T) {
	store := newTestStore(t)

	row := &AnalysisRow{
		ID:          "rec-1",
		Fingerprint: "abc123",
		Provider:    "gemini",
		ProductName: "Acme Runner 2000",
		RecordJSON:  `{"productName":"Acme Runner 2000"}`,
		Confidence:  0.72,
		UploadRef:   "/uploads/abc.jpg",
	}
	require.NoError(t, store.SaveAnalysis(row))

	got, err := store.GetAnalysis("rec-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "abc123", got.Fingerprint)
	assert.Equal(t, "Acme Runner 2000", got.ProductName)
	assert.Equal(t, "/uploads/abc.jpg", got.UploadRef)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetAnalysisMissing(t *testing.T) {
	store := newTestStore(t)
	got, err := store.GetAnalysis("nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestFeedbackPersistence(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.AddFeedback("fp-1"))
	require.NoError(t, store.AddFeedback("fp-1")) // idempotent
	require.NoError(t, store.AddFeedback("fp-2"))

	fps, err := store.BlockedFingerprints()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"fp-1", "fp-2"}, fps)

	require.NoError(t, store.ClearFeedback("fp-1"))
	fps, err = store.BlockedFingerprints()
	require.NoError(t, err)
	assert.Equal(t, []string{"fp-2"}, fps)
}

func TestCredentialEncryptedRoundTrip(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SetCredential("ebay", "super-secret"))
	got, err := store.GetCredential("ebay")
	require.NoError(t, err)
	assert.Equal(t, "super-secret", got)

	// The raw row must not contain the plaintext.
	var encrypted string
	err = store.db.QueryRow("SELECT encrypted_secret FROM credentials WHERE name = ?", "ebay").Scan(&encrypted)
	require.NoError(t, err)
	assert.NotContains(t, encrypted, "super-secret")
}

func TestGetCredentialMissing(t *testing.T) {
	store := newTestStore(t)
	got, err := store.GetCredential("unknown")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEncryptDecrypt(t *testing.T) {
	key, err := DeriveKey("passphrase")
	require.NoError(t, err)

	ciphertext, err := Encrypt([]byte("hello"), key)
	require.NoError(t, err)

	plaintext, err := Decrypt(ciphertext, key)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(plaintext))

	otherKey, err := DeriveKey("wrong")
	require.NoError(t, err)
	_, err = Decrypt(ciphertext, otherKey)
	assert.Error(t, err)
}
