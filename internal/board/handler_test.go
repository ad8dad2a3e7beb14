package board

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
)

func newTestRouter(svc *Service) *mux.Router {
	h := NewHandler(svc)
	r := mux.NewRouter()
	r.HandleFunc("/boards", h.Create).Methods("POST")
	r.HandleFunc("/boards", h.List).Methods("GET")
	r.HandleFunc("/boards/{boardId}", h.Get).Methods("GET")
	r.HandleFunc("/boards/{boardId}", h.Delete).Methods("DELETE")
	r.HandleFunc("/boards/{boardId}/snapshot", h.GetLatestSnapshot).Methods("GET")
	return r
}

func TestHandlerCreateAndGet(t *testing.T) {
	r := newTestRouter(NewService(NewMemoryStore()))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/boards", strings.NewReader(`{"name":"moodboard"}`)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body)
	}
	var created Board
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	if created.Name != "moodboard" || !strings.HasPrefix(created.ID, "board_") {
		t.Errorf("created = %+v", created)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/boards/"+created.ID, nil))
	if rec.Code != http.StatusOK {
		t.Errorf("get status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/boards/"+created.ID+"/snapshot", nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("snapshot = %d %q", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("DELETE", "/boards/"+created.ID, nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/boards/"+created.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d", rec.Code)
	}
}

func TestHandlerCreateValidation(t *testing.T) {
	r := newTestRouter(NewService(NewMemoryStore()))
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{`},
		{"missing name", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest("POST", "/boards", strings.NewReader(tt.body)))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestHandlerList(t *testing.T) {
	svc := NewService(NewMemoryStore())
	for _, name := range []string{"a", "b", "c"} {
		if _, err := svc.Create(context.Background(), name); err != nil {
			t.Fatal(err)
		}
	}
	r := newTestRouter(svc)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/boards", nil))
	var boards []Board
	if err := json.NewDecoder(rec.Body).Decode(&boards); err != nil {
		t.Fatal(err)
	}
	if len(boards) != 3 {
		t.Errorf("listed %d boards, want 3", len(boards))
	}
}
