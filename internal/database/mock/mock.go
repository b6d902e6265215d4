// Package mock provides in-memory implementations of the storage
// interfaces for testing. The attendance store enforces the same
// (identity_id, date) unique constraint as PostgreSQL so idempotency
// races are testable without a database.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/veskrna/face-attend/internal/database"
)

// IdentityStore is an in-memory database.IdentityWriter.
type IdentityStore struct {
	mu         sync.RWMutex
	identities map[string]database.Identity
	order      []string // insertion order for stable List snapshots

	// Error injection
	GetError       error
	ListError      error
	ExistsError    error
	CountError     error
	DimensionError error
	InsertError    error
	DeleteError    error
}

// NewIdentityStore creates an empty identity store.
func NewIdentityStore() *IdentityStore {
	return &IdentityStore{identities: make(map[string]database.Identity)}
}

func (m *IdentityStore) Get(ctx context.Context, identityID string) (*database.Identity, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	identity, ok := m.identities[identityID]
	if !ok {
		return nil, nil
	}
	return &identity, nil
}

func (m *IdentityStore) List(ctx context.Context) ([]database.Identity, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]database.Identity, 0, len(m.order))
	for _, id := range m.order {
		result = append(result, m.identities[id])
	}
	return result, nil
}

func (m *IdentityStore) Exists(ctx context.Context, identityID string) (bool, error) {
	if m.ExistsError != nil {
		return false, m.ExistsError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.identities[identityID]
	return ok, nil
}

func (m *IdentityStore) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.identities), nil
}

func (m *IdentityStore) Dimension(ctx context.Context) (int, error) {
	if m.DimensionError != nil {
		return 0, m.DimensionError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(m.order) == 0 {
		return 0, nil
	}
	return len(m.identities[m.order[0]].Embedding), nil
}

func (m *IdentityStore) Insert(ctx context.Context, identity database.Identity) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.identities[identity.IdentityID]; ok {
		return database.ErrDuplicateIdentity
	}
	if identity.CreatedAt.IsZero() {
		identity.CreatedAt = time.Now().UTC()
	}
	m.identities[identity.IdentityID] = identity
	m.order = append(m.order, identity.IdentityID)
	return nil
}

func (m *IdentityStore) Delete(ctx context.Context, identityID string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.identities[identityID]; !ok {
		return database.ErrNotFound
	}
	delete(m.identities, identityID)
	for i, id := range m.order {
		if id == identityID {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// AttendanceStore is an in-memory database.AttendanceWriter with the
// (identity_id, date) unique constraint.
type AttendanceStore struct {
	mu      sync.RWMutex
	records map[string]database.AttendanceRecord // keyed by record ID
	byDay   map[string]string                    // identityID+"|"+date -> record ID

	// Error injection
	GetError    error
	FindError   error
	ListError   error
	InsertError error
	UpdateError error
	DeleteError error

	// BeforeInsert runs inside Insert before the constraint check,
	// letting tests simulate a concurrent writer winning the race.
	BeforeInsert func(ctx context.Context)
}

// NewAttendanceStore creates an empty attendance store.
func NewAttendanceStore() *AttendanceStore {
	return &AttendanceStore{
		records: make(map[string]database.AttendanceRecord),
		byDay:   make(map[string]string),
	}
}

func dayKey(identityID, date string) string {
	return identityID + "|" + date
}

func (m *AttendanceStore) GetByRecordID(ctx context.Context, recordID string) (*database.AttendanceRecord, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	record, ok := m.records[recordID]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (m *AttendanceStore) FindByIdentityAndDate(ctx context.Context, identityID, date string) (*database.AttendanceRecord, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	recordID, ok := m.byDay[dayKey(identityID, date)]
	if !ok {
		return nil, nil
	}
	record := m.records[recordID]
	return &record, nil
}

func (m *AttendanceStore) ListByDate(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []database.AttendanceRecord
	for _, record := range m.records {
		if record.Date == date {
			result = append(result, record)
		}
	}
	// time_in descending, like the PostgreSQL query.
	for i := 0; i < len(result)-1; i++ {
		for j := i + 1; j < len(result); j++ {
			if result[j].TimeIn.After(result[i].TimeIn) {
				result[i], result[j] = result[j], result[i]
			}
		}
	}
	return result, nil
}

func (m *AttendanceStore) Insert(ctx context.Context, record database.AttendanceRecord) error {
	if m.InsertError != nil {
		return m.InsertError
	}
	if m.BeforeInsert != nil {
		hook := m.BeforeInsert
		m.BeforeInsert = nil
		hook(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := dayKey(record.IdentityID, record.Date)
	if _, ok := m.byDay[key]; ok {
		return database.ErrDuplicateAttendance
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	m.records[record.RecordID] = record
	m.byDay[key] = record.RecordID
	return nil
}

func (m *AttendanceStore) Update(ctx context.Context, recordID, status string, timeIn time.Time) (*database.AttendanceRecord, error) {
	if m.UpdateError != nil {
		return nil, m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[recordID]
	if !ok {
		return nil, database.ErrNotFound
	}
	record.Status = status
	record.TimeIn = timeIn
	m.records[recordID] = record
	return &record, nil
}

func (m *AttendanceStore) Delete(ctx context.Context, recordID string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	record, ok := m.records[recordID]
	if !ok {
		return database.ErrNotFound
	}
	delete(m.records, recordID)
	delete(m.byDay, dayKey(record.IdentityID, record.Date))
	return nil
}

func (m *AttendanceStore) DeleteByIdentity(ctx context.Context, identityID string) (int, error) {
	if m.DeleteError != nil {
		return 0, m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for recordID, record := range m.records {
		if record.IdentityID == identityID {
			delete(m.records, recordID)
			delete(m.byDay, dayKey(record.IdentityID, record.Date))
			count++
		}
	}
	return count, nil
}

type storedImage struct {
	data        []byte
	contentType string
}

// ImageStore is an in-memory database.ImageStore.
type ImageStore struct {
	mu     sync.RWMutex
	images map[string]storedImage

	// Error injection
	PutError    error
	GetError    error
	DeleteError error
}

// NewImageStore creates an empty image store.
func NewImageStore() *ImageStore {
	return &ImageStore{images: make(map[string]storedImage)}
}

func (m *ImageStore) Put(ctx context.Context, ref string, data []byte, contentType string) error {
	if m.PutError != nil {
		return m.PutError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.images[ref] = storedImage{data: data, contentType: contentType}
	return nil
}

func (m *ImageStore) Get(ctx context.Context, ref string) ([]byte, string, error) {
	if m.GetError != nil {
		return nil, "", m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	img, ok := m.images[ref]
	if !ok {
		return nil, "", database.ErrNotFound
	}
	return img.data, img.contentType, nil
}

func (m *ImageStore) Delete(ctx context.Context, ref string) error {
	if m.DeleteError != nil {
		return m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.images, ref)
	return nil
}

// Has reports whether an image is stored under ref. Test helper.
func (m *ImageStore) Has(ref string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.images[ref]
	return ok
}
