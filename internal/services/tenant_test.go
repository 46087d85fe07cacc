package services

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesafacil/reservas-backend/internal/models"
	"github.com/mesafacil/reservas-backend/internal/storage"
)

func writeDoc(t *testing.T, dir, id, name string, doc any) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, id), 0o755))
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, id, name), data, 0o644))
}

func TestResolveByTwilioNumber(t *testing.T) {
	store := storage.NewMemoryStore()
	store.AddRestaurant(&models.Restaurant{
		ID: "r1", Name: "La Parrilla", TwilioPhoneNumber: "+14155238886",
	})

	resolver := NewTenantResolver(store, t.TempDir())

	r, err := resolver.Resolve("whatsapp:+14155238886")
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID)
}

func TestResolveFallsBackToContactWhatsApp(t *testing.T) {
	store := storage.NewMemoryStore()
	store.AddRestaurant(&models.Restaurant{
		ID: "r1", Name: "La Parrilla",
		TwilioPhoneNumber: "+14155238886",
		ContactWhatsApp:   "+54 9 11 2345-6789",
	})
	store.AddRestaurant(&models.Restaurant{
		ID: "r2", Name: "Otro", TwilioPhoneNumber: "+10000000000",
	})

	resolver := NewTenantResolver(store, t.TempDir())

	// Sandbox sends a number the tenant never provisioned; the contact
	// WhatsApp suffix still identifies it.
	r, err := resolver.Resolve("whatsapp:+5491123456789")
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID)

	_, err = resolver.Resolve("whatsapp:+19998887766")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestResolveAttachesAndCachesDocs(t *testing.T) {
	store := storage.NewMemoryStore()
	store.AddRestaurant(&models.Restaurant{
		ID: "r1", Name: "La Parrilla", TwilioPhoneNumber: "+14155238886", Capacity: 50,
	})

	dir := t.TempDir()
	writeDoc(t, dir, "r1", "menu.json", models.MenuDocument{
		Days: map[string]models.DayMenu{
			"lunes": {Lunch: []models.MenuItem{{Name: "Milanesa", Price: 9000}}},
		},
	})
	info := models.InfoDocument{}
	info.Capacity.Total = 30
	info.Contact.Phone = "011-4555-0000"
	writeDoc(t, dir, "r1", "info.json", info)

	resolver := NewTenantResolver(store, dir)

	r, err := resolver.Resolve("+14155238886")
	require.NoError(t, err)
	require.NotNil(t, r.Menu)
	require.NotNil(t, r.Info)
	assert.Equal(t, 30, r.EffectiveCapacity())
	assert.Equal(t, "011-4555-0000", r.ContactPhoneDisplay())

	// Docs are cached until invalidated.
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "r1")))
	r, err = resolver.Resolve("+14155238886")
	require.NoError(t, err)
	assert.NotNil(t, r.Menu)

	resolver.InvalidateDocs("r1")
	r, err = resolver.Resolve("+14155238886")
	require.NoError(t, err)
	assert.Nil(t, r.Menu)
	assert.Equal(t, 50, r.EffectiveCapacity())
}

func TestMissingDocsAreNotFatal(t *testing.T) {
	store := storage.NewMemoryStore()
	store.AddRestaurant(&models.Restaurant{
		ID: "r1", Name: "La Parrilla", TwilioPhoneNumber: "+14155238886",
	})

	resolver := NewTenantResolver(store, t.TempDir())
	r, err := resolver.Resolve("+14155238886")
	require.NoError(t, err)
	assert.Nil(t, r.Menu)
	assert.Nil(t, r.Info)
}
