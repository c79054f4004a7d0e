package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ambulance-list/internal/models"
	"ambulance-list/internal/provider"
	"ambulance-list/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

var transportColumns = []string{
	"id", "patient_id", "patient_name", "from_department_id", "to_department_id",
	"scheduled_at", "estimated_duration_minutes",
	"mobility_code", "mobility_value", "mobility_description",
	"created_at", "updated_at",
}

const cachedKey = "transports:department:dept1"

// newStoreServer wires the server the way PROVIDER=postgres with Redis does:
// the view reads through the cache, writes go to the store.
func newStoreServer(t *testing.T) (*server, http.Handler, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	pg := store.NewPostgresStore(conn, zap.NewNop())

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cache := provider.NewCachingProvider(pg, provider.NewRedisKVStore(client), time.Minute, zap.NewNop())

	s, _ := newTestServer(t, cache)
	s.store = pg
	s.cache = cache
	return s, s.routes(), mock, mr
}

func seedStaleCache(t *testing.T, mr *miniredis.Miniredis) {
	t.Helper()
	stale := johnDoe()
	stale.ID = "9"
	stale.PatientName = "Old Entry"
	data, _ := json.Marshal([]models.TransportRecord{stale})
	mr.Set(cachedKey, string(data))
	mr.Set(cachedKey+":fresh", "1")
}

func TestHandleAPITransports_PostSavesAndInvalidatesCache(t *testing.T) {
	s, h, mock, mr := newStoreServer(t)
	seedStaleCache(t, mr)

	at := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO transports`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, patient_id, patient_name`).
		WithArgs("dept1").
		WillReturnRows(sqlmock.NewRows(transportColumns).
			AddRow("1", "123", "John Doe", "dept1", "dept2", at, 30, "WALK", "Walking", nil, at, at))

	payload, _ := json.Marshal([]models.TransportRecord{johnDoe()})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/api/transports", strings.NewReader(string(payload))))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet database expectations: %v", err)
	}
	if got := s.view.Transports(); len(got) != 1 || got[0].PatientName != "John Doe" {
		t.Errorf("Expected view reloaded from the store, got %+v", got)
	}
	cached, err := mr.Get(cachedKey)
	if err != nil {
		t.Fatalf("Expected cache to be refilled: %v", err)
	}
	if strings.Contains(cached, "Old Entry") || !strings.Contains(cached, "John Doe") {
		t.Errorf("Stale cache entry survived the write: %s", cached)
	}
}

func TestHandleAPITransports_PostSaveFailure(t *testing.T) {
	s, h, mock, _ := newStoreServer(t)

	mock.ExpectExec(`INSERT INTO transports`).WillReturnError(errors.New("connection reset"))

	payload, _ := json.Marshal([]models.TransportRecord{johnDoe()})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/api/transports", strings.NewReader(string(payload))))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rr.Code)
	}
	if got := s.view.Transports(); len(got) != 0 {
		t.Errorf("Expected view untouched after failed save, got %+v", got)
	}
}

func TestHandleDeleteTransport_Store(t *testing.T) {
	s, h, mock, mr := newStoreServer(t)
	if err := s.view.SetTransports([]models.TransportRecord{johnDoe()}); err != nil {
		t.Fatal(err)
	}
	seedStaleCache(t, mr)

	mock.ExpectExec(`DELETE FROM transports`).WithArgs("1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, patient_id, patient_name`).
		WithArgs("dept1").
		WillReturnRows(sqlmock.NewRows(transportColumns))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("DELETE", "/api/transports/1", nil))

	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d: %s", rr.Code, rr.Body.String())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet database expectations: %v", err)
	}
	if got := s.view.Transports(); len(got) != 0 {
		t.Errorf("Expected empty list after delete, got %+v", got)
	}
	if cached, _ := mr.Get(cachedKey); strings.Contains(cached, "Old Entry") {
		t.Errorf("Stale cache entry survived the delete: %s", cached)
	}
}

func TestHandleDeleteTransport_StoreNotFound(t *testing.T) {
	_, h, mock, _ := newStoreServer(t)

	mock.ExpectExec(`DELETE FROM transports`).WithArgs("42").WillReturnResult(sqlmock.NewResult(0, 0))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("DELETE", "/api/transports/42", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", rr.Code)
	}
}

func TestHandleDeleteTransport_InMemory(t *testing.T) {
	s, h := newTestServer(t, &stubFetcher{})
	jane := johnDoe()
	jane.ID = "2"
	jane.PatientName = "Jane Roe"
	if err := s.view.SetTransports([]models.TransportRecord{johnDoe(), jane}); err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("DELETE", "/api/transports/1", nil))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("Expected 204, got %d", rr.Code)
	}
	if got := s.view.Transports(); len(got) != 1 || got[0].PatientName != "Jane Roe" {
		t.Errorf("Unexpected transports after delete: %+v", got)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("DELETE", "/api/transports/1", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown id, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/transports/2", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rr.Code)
	}
}
