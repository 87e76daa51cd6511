package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgaa-thai/restaurant-client/internal/model"
)

func fullState() model.State {
	return model.State{
		Version: model.SnapshotVersion,
		Admin: model.SessionPartition{
			IsAuthenticated: true,
			Info:            &model.UserRecord{UserID: 9, FirstName: "Root", Role: "admin"},
			Token:           "admin-token",
		},
		Worker: model.SessionPartition{},
		Client: model.ClientPartition{
			SessionPartition: model.SessionPartition{
				IsAuthenticated: true,
				Info: &model.UserRecord{
					UserID:    1,
					FirstName: "Ann",
					LastName:  "Chai",
					Email:     "ann@example.com",
					Phone:     "555-0101",
					Address:   "12 Sukhumvit Rd",
					Role:      "client",
				},
				Token: "client-token",
			},
			Cart: []model.CartLine{
				{ID: 1, ItemName: "Pad Thai", Quantity: 2, Price: 150, Size: "large", Category: "noodles"},
				{ID: 2, ItemName: "Tom Yum", Quantity: 1, Price: 120, Category: "soup"},
			},
			Reservations: []string{"T1", "T4"},
		},
	}
}

func TestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	saver := NewFile(path)

	want := fullState()
	require.NoError(t, saver.Save(context.Background(), want))

	got, err := saver.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileLoad_NoSnapshot(t *testing.T) {
	saver := NewFile(filepath.Join(t.TempDir(), "missing.json"))

	_, err := saver.Load(context.Background())
	if !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("err = %v, want ErrNoSnapshot", err)
	}
}

func TestFileLoad_MalformedPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFile(path).Load(context.Background())
	if err == nil || errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("err = %v, want decode error", err)
	}
}

// Снимок без поля версии (схема до версионирования) восстанавливается
// best-effort и получает текущую версию.
func TestFileLoad_UnversionedSnapshotMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	legacy := `{"client":{"is_authenticated":true,"info":{"user_id":1,"fname":"Ann"},"cart":[{"item_name":"Pad Thai","quantity":1,"price":150}]}}`
	require.NoError(t, os.WriteFile(path, []byte(legacy), 0o600))

	got, err := NewFile(path).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.SnapshotVersion, got.Version)
	assert.True(t, got.Client.IsAuthenticated)
	require.Len(t, got.Client.Cart, 1)
	assert.Equal(t, "Pad Thai", got.Client.Cart[0].ItemName)
	// Недостающие поля молча остаются значениями по умолчанию.
	assert.False(t, got.Admin.IsAuthenticated)
	assert.Nil(t, got.Client.Reservations)
}

func TestOpen_SelectsFileDriverByDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	saver, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer saver.Close()

	if _, ok := saver.(*File); !ok {
		t.Fatalf("driver = %T, want *File", saver)
	}
}
