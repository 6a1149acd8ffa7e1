package studio

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"OpenEmployee/internal/api"
	"OpenEmployee/internal/session"
)

func newStudio(t *testing.T) *Client {
	t.Helper()
	srv := httptest.NewServer(api.NewServer(":0", session.NewOrchestrator(nil, nil)).Handler())
	t.Cleanup(srv.Close)

	client, err := NewClient(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func TestClarifyThenComplete(t *testing.T) {
	client := newStudio(t)
	ctx := context.Background()

	sess, err := client.CreateSession(ctx, "standard", "你好，在吗")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.Status != "input" || len(sess.Questions) == 0 {
		t.Fatalf("expected clarification, got %+v", sess)
	}

	sess, err = client.SubmitInput(ctx, sess.ID, "我需要一个客服助手，能够回答订单问题，要求友好耐心")
	if err != nil {
		t.Fatalf("submit input: %v", err)
	}
	if sess.Status != "completed" {
		t.Fatalf("expected completed, got %q (%s)", sess.Status, sess.LastError)
	}
	if sess.CurrentConfig["name"] == "" || sess.CurrentConfig["department"] == "" {
		t.Fatalf("config missing required fields: %+v", sess.CurrentConfig)
	}

	sess, err = client.PatchConfig(ctx, sess.ID, map[string]any{"name": "小美"})
	if err != nil {
		t.Fatalf("patch config: %v", err)
	}
	if sess.CurrentConfig["name"] != "小美" {
		t.Fatalf("patch not applied: %+v", sess.CurrentConfig)
	}

	list, err := client.ListSessions(ctx, ListQuery{Statuses: []string{"completed"}, Limit: 5})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(list) != 1 || list[0].ID != sess.ID {
		t.Fatalf("unexpected list: %+v", list)
	}

	stats, err := client.Stats(ctx, ListQuery{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 1 || stats.ByStatus["completed"] != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}

	if err := client.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	_, err = client.GetSession(ctx, sess.ID)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound || apiErr.Code != "SESSION_NOT_FOUND" {
		t.Fatalf("expected not found api error, got %v", err)
	}
}

func TestAnalyze(t *testing.T) {
	client := newStudio(t)
	analysis, err := client.Analyze(context.Background(), "我需要一个客服助手，能够回答订单问题")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.Intent != "create_employee" {
		t.Fatalf("unexpected intent %q", analysis.Intent)
	}
}

func TestPlainTextErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, err := NewClient(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.GetSession(context.Background(), "s-1")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Message != "upstream down" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestListQueryValues(t *testing.T) {
	v := ListQuery{Statuses: []string{"input", "error"}, Modes: []string{"quick"}, Query: "客服", Limit: 10, Offset: 5, Ascending: true}.values()
	want := map[string]string{"status": "input,error", "mode": "quick", "q": "客服", "limit": "10", "offset": "5", "order": "asc"}
	for k, val := range want {
		if got := v.Get(k); got != val {
			t.Fatalf("%s: got %q want %q", k, got, val)
		}
	}
	if len(ListQuery{}.values()) != 0 {
		t.Fatalf("empty query should encode nothing")
	}
}
