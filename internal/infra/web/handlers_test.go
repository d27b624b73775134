package web

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-group-guard/internal/domain"
	"telegram-group-guard/internal/domain/model"
	red "telegram-group-guard/internal/infra/redis"
	"telegram-group-guard/internal/usecase"
)

type stubGroupUC struct {
	groups []*model.Group
}

func (s *stubGroupUC) RegisterGroup(ctx context.Context, id int64, title, username string) (*model.Group, error) {
	return model.NewGroup(id, title, username)
}
func (s *stubGroupUC) DeactivateGroup(ctx context.Context, id int64) error { return nil }
func (s *stubGroupUC) ListGroups(ctx context.Context) ([]*model.Group, error) {
	return s.groups, nil
}
func (s *stubGroupUC) GetGroup(ctx context.Context, id int64) (*model.Group, error) {
	for _, g := range s.groups {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, domain.ErrNotFound
}
func (s *stubGroupUC) HandleMemberJoined(ctx context.Context, groupID int64, sender model.Sender) error {
	return nil
}
func (s *stubGroupUC) HandleMemberLeft(ctx context.Context, groupID int64, sender model.Sender) error {
	return nil
}
func (s *stubGroupUC) PurgeStale(ctx context.Context, retention time.Duration) (int, error) {
	return 0, nil
}

type stubSettingsUC struct {
	updated *model.GroupSettings
}

func (s *stubSettingsUC) Get(ctx context.Context, groupID int64) (*model.GroupSettings, error) {
	return model.DefaultGroupSettings(groupID), nil
}
func (s *stubSettingsUC) Toggle(ctx context.Context, groupID int64, setting string) (*model.GroupSettings, error) {
	return model.DefaultGroupSettings(groupID), nil
}
func (s *stubSettingsUC) Update(ctx context.Context, st *model.GroupSettings) error {
	s.updated = st
	return nil
}

type stubStatsUC struct{}

func (stubStatsUC) Global(ctx context.Context) (*usecase.GlobalStats, error) {
	return &usecase.GlobalStats{ActiveGroups: 1, TotalMembers: 10, VerifiedMembers: 8}, nil
}
func (stubStatsUC) Group(ctx context.Context, groupID int64) (*usecase.GroupStats, error) {
	if groupID != -100 {
		return nil, domain.ErrNotFound
	}
	return &usecase.GroupStats{GroupID: groupID, Title: "g", Members: 10, VerifiedMembers: 8}, nil
}

type stubBroadcastUC struct {
	confirmed int
}

func (s *stubBroadcastUC) Prepare(ctx context.Context, adminID int64, text string) (*red.PendingBroadcast, error) {
	return &red.PendingBroadcast{JobID: "job1", AdminID: adminID, Text: text}, nil
}
func (s *stubBroadcastUC) Pending(ctx context.Context, adminID int64) (*red.PendingBroadcast, error) {
	return nil, nil
}
func (s *stubBroadcastUC) Confirm(ctx context.Context, adminID int64) (string, int, error) {
	s.confirmed++
	return "job1", 2, nil
}
func (s *stubBroadcastUC) Cancel(ctx context.Context, adminID int64) error { return nil }

func testServer(t *testing.T) (*Server, *stubSettingsUC, *stubBroadcastUC) {
	t.Helper()
	logger := zerolog.Nop()
	g, _ := model.NewGroup(-100, "Test Group", "testgroup")
	settings := &stubSettingsUC{}
	bc := &stubBroadcastUC{}
	auth := NewAuthManager("test-secret", false, "", time.Minute)
	srv := NewServer(&stubGroupUC{groups: []*model.Group{g}}, settings, stubStatsUC{}, bc, auth, "test-key", 1000, &logger)
	return srv, settings, bc
}

func doRequest(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestServer_Healthz(t *testing.T) {
	srv, _, _ := testServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
}

func TestServer_AuthRequired(t *testing.T) {
	srv, _, _ := testServer(t)

	if rec := doRequest(t, srv, http.MethodGet, "/api/v1/stats", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: want 401, got %d", rec.Code)
	}
	if rec := doRequest(t, srv, http.MethodGet, "/api/v1/stats", "wrong-key", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: want 401, got %d", rec.Code)
	}
	if rec := doRequest(t, srv, http.MethodGet, "/api/v1/stats", "test-key", nil); rec.Code != http.StatusOK {
		t.Fatalf("api key: want 200, got %d", rec.Code)
	}
}

func TestServer_LoginMintsUsableToken(t *testing.T) {
	srv, _, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/login", "", map[string]string{"api_key": "test-key"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: %d", rec.Code)
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("bad login response: %v %q", err, rec.Body.String())
	}

	if rec := doRequest(t, srv, http.MethodGet, "/api/v1/groups", resp.Token, nil); rec.Code != http.StatusOK {
		t.Fatalf("session token: want 200, got %d", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/login", "", map[string]string{"api_key": "nope"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad credentials: want 401, got %d", rec.Code)
	}
}

func TestServer_ListGroups(t *testing.T) {
	srv, _, _ := testServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/groups", "test-key", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("groups: %d", rec.Code)
	}
	var groups []groupView
	if err := json.Unmarshal(rec.Body.Bytes(), &groups); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(groups) != 1 || groups[0].ID != -100 || groups[0].Title != "Test Group" {
		t.Fatalf("bad listing %+v", groups)
	}
}

func TestServer_GroupStats(t *testing.T) {
	srv, _, _ := testServer(t)

	if rec := doRequest(t, srv, http.MethodGet, "/api/v1/groups/-100/stats", "test-key", nil); rec.Code != http.StatusOK {
		t.Fatalf("known group: %d", rec.Code)
	}
	if rec := doRequest(t, srv, http.MethodGet, "/api/v1/groups/-999/stats", "test-key", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown group: want 404, got %d", rec.Code)
	}
}

func TestServer_UpdateSettings(t *testing.T) {
	srv, settings, _ := testServer(t)

	body := map[string]bool{"delete_links": false, "delete_ads": true, "delete_join_leave": false}
	rec := doRequest(t, srv, http.MethodPost, "/api/v1/groups/-100/settings", "test-key", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	if settings.updated == nil || settings.updated.DeleteLinks || !settings.updated.DeleteAds {
		t.Fatalf("settings not applied: %+v", settings.updated)
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/groups/-999/settings", "test-key", body)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown group: want 404, got %d", rec.Code)
	}
}

func TestServer_Broadcast(t *testing.T) {
	srv, _, bc := testServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/v1/broadcast", "test-key", map[string]string{"text": "hello"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("broadcast: %d %s", rec.Code, rec.Body.String())
	}
	if bc.confirmed != 1 {
		t.Fatal("broadcast must be confirmed once")
	}

	rec = doRequest(t, srv, http.MethodPost, "/api/v1/broadcast", "test-key", map[string]string{"text": ""})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty text: want 400, got %d", rec.Code)
	}
}
