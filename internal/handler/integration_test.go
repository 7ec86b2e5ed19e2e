package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/cycleconnect/server/internal/handler"
	"github.com/cycleconnect/server/internal/repository/sqlite"
	"github.com/cycleconnect/server/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests"

// jpegBytes and pngBytes carry the magic prefixes http.DetectContentType
// sniffs for.
var (
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, []byte("fake-jpeg-data")...)
	pngBytes  = append([]byte("\x89PNG\r\n\x1a\n"), []byte("fake-png-data")...)
)

type fakeMediaStore struct {
	uploads map[string][]byte
}

func (f *fakeMediaStore) Upload(_ context.Context, key, _ string, data []byte) (string, error) {
	if f.uploads == nil {
		f.uploads = make(map[string][]byte)
	}
	f.uploads[key] = data
	return "https://media.test/uploads/" + key, nil
}

func (f *fakeMediaStore) Delete(_ context.Context, key string) error {
	delete(f.uploads, key)
	return nil
}

func newTestServices(t *testing.T) (*service.AuthService, *service.CycleService) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New DB: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	media := &fakeMediaStore{}
	return service.NewAuthService(db.Users(), media, testJWTSecret, 4),
		service.NewCycleService(db.Cycles(), media)
}

func newTestServer(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	auth, cycles := newTestServices(t)

	limiter := service.NewTokenBucket(100, 100)
	t.Cleanup(limiter.Stop)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, auth, cycles, limiter, false)

	srv := httptest.NewServer(handler.SecurityHeaders(mux))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("create cookie jar: %v", err)
	}
	return srv, &http.Client{Jar: jar}
}

type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

func decodeEnvelope(t *testing.T, resp *http.Response) envelope {
	t.Helper()
	defer resp.Body.Close()
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return env
}

func postJSON(t *testing.T, client *http.Client, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := client.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func registerTestUser(t *testing.T, client *http.Client, baseURL, email string) {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/users/register", map[string]string{
		"email":           email,
		"fullName":        "Ravi Kumar",
		"phoneNumber":     "9876543210",
		"upiId":           "ravi@upi",
		"password":        "password123",
		"confirmPassword": "password123",
	})
	env := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusCreated || !env.Success {
		t.Fatalf("register user: status %d, envelope %+v", resp.StatusCode, env)
	}
}

func loginTestUser(t *testing.T, client *http.Client, baseURL, email string) {
	t.Helper()
	resp := postJSON(t, client, baseURL+"/api/v1/users/login", map[string]string{
		"email":    email,
		"password": "password123",
	})
	env := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("login: status %d, envelope %+v", resp.StatusCode, env)
	}
}

// cycleForm builds a multipart body for the cycle registration endpoint.
// A nil image omits the file part.
func cycleForm(t *testing.T, model, cycleType, landmark string, image []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, value := range map[string]string{
		"model":     model,
		"cycleType": cycleType,
		"landmark":  landmark,
	} {
		if err := mw.WriteField(field, value); err != nil {
			t.Fatalf("write field %s: %v", field, err)
		}
	}
	if image != nil {
		fw, err := mw.CreateFormFile("image", "cycle.jpg")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := fw.Write(image); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func registerCycle(t *testing.T, client *http.Client, baseURL string, image []byte) *http.Response {
	t.Helper()
	body, contentType := cycleForm(t, "Hero Sprint", "mountain", "library", image)
	resp, err := client.Post(baseURL+"/api/v1/cycles", contentType, body)
	if err != nil {
		t.Fatalf("POST /api/v1/cycles: %v", err)
	}
	return resp
}

func TestIntegration_CycleLifecycle(t *testing.T) {
	srv, client := newTestServer(t)

	registerTestUser(t, client, srv.URL, "owner@example.com")
	loginTestUser(t, client, srv.URL, "owner@example.com")

	// Register a cycle listing.
	resp := registerCycle(t, client, srv.URL, jpegBytes)
	env := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register cycle: expected 201, got %d (%s)", resp.StatusCode, env.Message)
	}
	if !env.Success || env.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected envelope %+v", env)
	}

	var created struct {
		ID        int64  `json:"id"`
		OwnerID   int64  `json:"ownerId"`
		Model     string `json:"model"`
		CycleType string `json:"cycleType"`
		Image     string `json:"image"`
		IsActive  bool   `json:"isActive"`
	}
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decode created cycle: %v", err)
	}
	if created.Model != "Hero Sprint" || created.CycleType != "mountain" || !created.IsActive {
		t.Fatalf("unexpected created cycle %+v", created)
	}
	if !strings.HasPrefix(created.Image, "https://media.test/uploads/cycles/") {
		t.Fatalf("unexpected image URL %q", created.Image)
	}

	// A second registration from the same owner conflicts.
	resp = registerCycle(t, client, srv.URL, jpegBytes)
	env = decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusConflict || env.Success {
		t.Fatalf("second register: expected 409 failure envelope, got %d %+v", resp.StatusCode, env)
	}

	// Search with cycleType both finds it; owner carries only id and name.
	resp = postJSON(t, client, srv.URL+"/api/v1/cycles/search", map[string]string{
		"landmark":  "library",
		"cycleType": "both",
	})
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read search body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("search: expected 200, got %d (%s)", resp.StatusCode, raw)
	}
	if bytes.Contains(raw, []byte("phoneNumber")) || bytes.Contains(raw, []byte("upiId")) {
		t.Fatalf("search payload leaked contact fields: %s", raw)
	}
	var searchEnv struct {
		Data []struct {
			ID    int64 `json:"id"`
			Owner struct {
				ID       int64  `json:"id"`
				FullName string `json:"fullName"`
			} `json:"owner"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &searchEnv); err != nil {
		t.Fatalf("decode search envelope: %v", err)
	}
	if len(searchEnv.Data) != 1 || searchEnv.Data[0].ID != created.ID {
		t.Fatalf("expected the created cycle in search results, got %s", raw)
	}
	if searchEnv.Data[0].Owner.FullName != "Ravi Kumar" {
		t.Fatalf("expected owner summary, got %s", raw)
	}

	// Detail exposes the full contact subset and round-trips the cycle.
	resp, err = client.Get(srv.URL + "/api/v1/cycles/" + strconv.FormatInt(created.ID, 10))
	if err != nil {
		t.Fatalf("GET detail: %v", err)
	}
	env = decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("detail: expected 200 success, got %d %+v", resp.StatusCode, env)
	}
	var detail []struct {
		Model     string `json:"model"`
		CycleType string `json:"cycleType"`
		Image     string `json:"image"`
		Owner     struct {
			ID          int64  `json:"id"`
			PhoneNumber string `json:"phoneNumber"`
			Email       string `json:"email"`
			UpiID       string `json:"upiId"`
		} `json:"owner"`
	}
	if err := json.Unmarshal(env.Data, &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if len(detail) != 1 {
		t.Fatalf("expected one-element detail payload, got %d", len(detail))
	}
	d := detail[0]
	if d.Model != created.Model || d.CycleType != created.CycleType || d.Image != created.Image {
		t.Fatalf("detail does not round-trip the created cycle: %+v vs %+v", d, created)
	}
	if d.Owner.ID != created.OwnerID || d.Owner.PhoneNumber != "9876543210" || d.Owner.UpiID != "ravi@upi" || d.Owner.Email != "owner@example.com" {
		t.Fatalf("detail owner projection incomplete: %+v", d.Owner)
	}
}

func TestIntegration_RegisterCycle_RequiresAuth(t *testing.T) {
	srv, client := newTestServer(t)

	resp := registerCycle(t, client, srv.URL, jpegBytes)
	env := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusUnauthorized || env.Success {
		t.Fatalf("expected 401 failure envelope, got %d %+v", resp.StatusCode, env)
	}
}

func TestIntegration_RegisterCycle_MissingFile(t *testing.T) {
	srv, client := newTestServer(t)

	registerTestUser(t, client, srv.URL, "nofile@example.com")
	loginTestUser(t, client, srv.URL, "nofile@example.com")

	resp := registerCycle(t, client, srv.URL, nil)
	env := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusBadRequest || env.Success {
		t.Fatalf("expected 400 failure envelope, got %d %+v", resp.StatusCode, env)
	}
}

func TestIntegration_Search_EmptyResultIsSuccess(t *testing.T) {
	srv, client := newTestServer(t)

	resp := postJSON(t, client, srv.URL+"/api/v1/cycles/search", map[string]string{
		"landmark":  "nowhere",
		"cycleType": "both",
	})
	env := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("expected 200 success, got %d %+v", resp.StatusCode, env)
	}
	var data []any
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("expected empty list, got %v", data)
	}
}

func TestIntegration_Search_BlankFiltersRejected(t *testing.T) {
	srv, client := newTestServer(t)

	resp := postJSON(t, client, srv.URL+"/api/v1/cycles/search", map[string]string{
		"landmark":  "",
		"cycleType": "both",
	})
	env := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusBadRequest || env.Success {
		t.Fatalf("expected 400 failure envelope, got %d %+v", resp.StatusCode, env)
	}
}

func TestIntegration_Detail_UnknownIDIsEmptySuccess(t *testing.T) {
	srv, client := newTestServer(t)

	resp, err := client.Get(srv.URL + "/api/v1/cycles/424242")
	if err != nil {
		t.Fatalf("GET detail: %v", err)
	}
	env := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("expected 200 success, got %d %+v", resp.StatusCode, env)
	}
	var data []any
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("expected empty list for unknown id, got %v", data)
	}
}

func TestIntegration_Detail_MalformedID(t *testing.T) {
	srv, client := newTestServer(t)

	resp, err := client.Get(srv.URL + "/api/v1/cycles/not-a-number")
	if err != nil {
		t.Fatalf("GET detail: %v", err)
	}
	env := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusBadRequest || env.Success {
		t.Fatalf("expected 400 failure envelope, got %d %+v", resp.StatusCode, env)
	}
}

func TestIntegration_AvatarUpload(t *testing.T) {
	srv, client := newTestServer(t)

	registerTestUser(t, client, srv.URL, "avatar@example.com")
	loginTestUser(t, client, srv.URL, "avatar@example.com")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("avatar", "me.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(pngBytes); err != nil {
		t.Fatalf("write avatar: %v", err)
	}
	mw.Close()

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/v1/users/avatar", &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("PUT avatar: %v", err)
	}
	env := decodeEnvelope(t, resp)
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Fatalf("expected 200 success, got %d %+v", resp.StatusCode, env)
	}

	// The new avatar shows up on the profile.
	resp, err = client.Get(srv.URL + "/api/v1/users/me")
	if err != nil {
		t.Fatalf("GET me: %v", err)
	}
	env = decodeEnvelope(t, resp)
	var me struct {
		Avatar string `json:"avatar"`
	}
	if err := json.Unmarshal(env.Data, &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if !strings.HasPrefix(me.Avatar, "https://media.test/uploads/avatars/") {
		t.Fatalf("unexpected avatar %q", me.Avatar)
	}
}

