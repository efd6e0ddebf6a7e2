package customer

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/clientbook/service/internal/middleware"
	"github.com/clientbook/service/internal/response"
)

func newTestRouter(svc *Service) http.Handler {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Route("/v1/customers", func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				ctx := middleware.ContextWithPrincipal(req.Context(), middleware.Principal{Username: "tester"})
				next.ServeHTTP(w, req.WithContext(ctx))
			})
		})
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/{customerID}", h.GetByID)
		r.Patch("/{customerID}", h.Patch)
		r.Delete("/{customerID}", h.Delete)
		r.Post("/{customerID}/photo", h.AttachPhoto)
	})
	return r
}

func decodeEnvelope(t *testing.T, body io.Reader) response.Envelope {
	t.Helper()
	var env response.Envelope
	if err := json.NewDecoder(body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return env
}

func TestCreateCustomerEndpoint(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/v1/customers", strings.NewReader(`{"name":"Ada","surname":"Lovelace"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec.Body)
	data, ok := env.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("unexpected data %v", env.Data)
	}
	if data["id"] == nil || data["id"].(float64) == 0 {
		t.Fatalf("expected generated id, got %v", data["id"])
	}
	if data["name"] != "Ada" || data["surname"] != "Lovelace" {
		t.Fatalf("unexpected fields %v", data)
	}
	if data["photoUrl"] != nil {
		t.Fatalf("expected null photoUrl, got %v", data["photoUrl"])
	}
	if data["createdBy"] != "tester" {
		t.Fatalf("expected createdBy from principal, got %v", data["createdBy"])
	}
}

func TestCreateCustomerValidation(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc)

	cases := []string{
		`{"name":"","surname":"Lovelace"}`,
		`{"name":"A","surname":"Lovelace"}`,
		`{"name":"Ada","surname":"` + strings.Repeat("x", 21) + `"}`,
		`{"name":"   ","surname":"Lovelace"}`,
		`not json`,
	}
	for _, body := range cases {
		req := httptest.NewRequest(http.MethodPost, "/v1/customers", strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
}

func TestGetCustomerNotFound(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/v1/customers/99", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestPatchCustomerEndpoint(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc)

	svc.Create(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "tester", "Ada", "Lovelace")

	req := httptest.NewRequest(http.MethodPatch, "/v1/customers/1", strings.NewReader(`{"surname":"Byron"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec.Body)
	data := env.Data.(map[string]interface{})
	if data["name"] != "Ada" || data["surname"] != "Byron" {
		t.Fatalf("unexpected fields after patch: %v", data)
	}
}

func TestDeleteCustomerEndpoint(t *testing.T) {
	svc, store, _ := newTestService()
	router := newTestRouter(svc)

	created, _ := svc.Create(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "tester", "Ada", "Lovelace")

	req := httptest.NewRequest(http.MethodDelete, "/v1/customers/1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if _, ok := store.customers[created.ID]; ok {
		t.Fatal("customer still in store after delete")
	}
}

func TestAttachPhotoEndpoint(t *testing.T) {
	svc, _, photos := newTestService()
	router := newTestRouter(svc)

	svc.Create(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "tester", "Ada", "Lovelace")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("photo", "foo.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write([]byte("photo bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/customers/1/photo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	env := decodeEnvelope(t, rec.Body)
	data := env.Data.(map[string]interface{})
	if data["photoUrl"] == nil {
		t.Fatal("expected non-null photoUrl after attach")
	}
	if len(photos.deletedKeys) != 0 {
		t.Fatalf("expected no storage delete for first attach, got %v", photos.deletedKeys)
	}
}

func TestAttachPhotoMissingFileField(t *testing.T) {
	svc, _, _ := newTestService()
	router := newTestRouter(svc)

	svc.Create(httptest.NewRequest(http.MethodGet, "/", nil).Context(), "tester", "Ada", "Lovelace")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("other", "value")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/v1/customers/1/photo", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
