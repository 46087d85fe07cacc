package services

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mesafacil/reservas-backend/internal/models"
	"github.com/mesafacil/reservas-backend/internal/storage"
)

// TenantResolver maps an inbound Twilio destination number to the
// restaurant that owns it and attaches the tenant's menu/info documents.
type TenantResolver struct {
	store   storage.Store
	dataDir string

	mu   sync.RWMutex
	docs map[string]*tenantDocs
}

type tenantDocs struct {
	menu *models.MenuDocument
	info *models.InfoDocument
}

// NewTenantResolver reads tenant documents from dataDir/<restaurantID>/.
func NewTenantResolver(store storage.Store, dataDir string) *TenantResolver {
	return &TenantResolver{
		store:   store,
		dataDir: dataDir,
		docs:    make(map[string]*tenantDocs),
	}
}

// Resolve finds the active restaurant behind the webhook's To number.
// It matches the provisioned Twilio number first and falls back to
// comparing the last ten digits of each tenant's contact WhatsApp, which
// covers sandbox numbers.
func (t *TenantResolver) Resolve(to string) (*models.Restaurant, error) {
	number := strings.TrimPrefix(strings.TrimSpace(to), "whatsapp:")

	r, err := t.store.GetRestaurantByTwilioNumber(number)
	if err == nil {
		t.attachDocs(r)
		return r, nil
	}
	if err != storage.ErrNotFound {
		return nil, err
	}

	suffix := lastDigits(number, 10)
	if suffix != "" {
		active, err := t.store.ListActiveRestaurants()
		if err != nil {
			return nil, err
		}
		for i := range active {
			if lastDigits(active[i].ContactWhatsApp, 10) == suffix {
				r := active[i]
				t.attachDocs(&r)
				return &r, nil
			}
		}
	}
	return nil, fmt.Errorf("no active restaurant for %s: %w", number, storage.ErrNotFound)
}

// ResolveByID loads a tenant directly, documents attached.
func (t *TenantResolver) ResolveByID(id string) (*models.Restaurant, error) {
	r, err := t.store.GetRestaurant(id)
	if err != nil {
		return nil, err
	}
	t.attachDocs(r)
	return r, nil
}

func (t *TenantResolver) attachDocs(r *models.Restaurant) {
	t.mu.RLock()
	d, ok := t.docs[r.ID]
	t.mu.RUnlock()
	if !ok {
		d = t.loadDocs(r.ID)
		t.mu.Lock()
		t.docs[r.ID] = d
		t.mu.Unlock()
	}
	r.Menu = d.menu
	r.Info = d.info
}

// loadDocs reads menu.json and info.json. Missing or broken files just
// mean the tenant runs without that document.
func (t *TenantResolver) loadDocs(id string) *tenantDocs {
	d := &tenantDocs{}

	if data, err := os.ReadFile(filepath.Join(t.dataDir, id, "menu.json")); err == nil {
		var menu models.MenuDocument
		if err := json.Unmarshal(data, &menu); err != nil {
			log.Printf("⚠️ menu.json for %s is invalid: %v", id, err)
		} else {
			d.menu = &menu
		}
	}

	if data, err := os.ReadFile(filepath.Join(t.dataDir, id, "info.json")); err == nil {
		var info models.InfoDocument
		if err := json.Unmarshal(data, &info); err != nil {
			log.Printf("⚠️ info.json for %s is invalid: %v", id, err)
		} else {
			d.info = &info
		}
	}

	return d
}

// InvalidateDocs drops the cached documents for one tenant so the next
// resolve re-reads them from disk.
func (t *TenantResolver) InvalidateDocs(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.docs, id)
}

func lastDigits(s string, n int) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < n {
		return digits
	}
	return digits[len(digits)-n:]
}
