package crm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/novahouse/renobot/internal/extract"
)

func TestMondayCreateLead(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"data":{"create_item":{"id":"item-42"}}}`))
	}))
	defer srv.Close()

	c := NewMondayClientWithURL(srv.URL, "token-abc", "board-1")
	id, err := c.CreateLead(context.Background(), Lead{
		SessionID: "s1",
		Name:      "Anna",
		Phone:     "601234567",
		Budget:    200000,
		Score:     70,
	})
	if err != nil {
		t.Fatalf("CreateLead() error = %v", err)
	}
	if id != "item-42" {
		t.Fatalf("item id = %q, want item-42", id)
	}
	if gotAuth != "token-abc" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	if _, ok := gotBody["query"]; !ok {
		t.Fatalf("request missing GraphQL query: %v", gotBody)
	}
}

func TestMondayCreateLeadErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[{"message":"invalid board"}]}`))
	}))
	defer srv.Close()

	c := NewMondayClientWithURL(srv.URL, "t", "b")
	if _, err := c.CreateLead(context.Background(), Lead{SessionID: "s1"}); err == nil {
		t.Fatalf("expected error from API error payload")
	}
}

func TestLeadFromMemoryAndScore(t *testing.T) {
	mem := extract.Memory{
		extract.FactName:         "Marek",
		extract.FactPhone:        "601234567",
		extract.FactBudget:       200000,
		extract.FactSquareMeters: 55.0,
		extract.FactPackage:      "Comfort",
	}
	lead := LeadFromMemory("s9", mem)
	if lead.Name != "Marek" || lead.Phone != "601234567" || lead.Budget != 200000 {
		t.Fatalf("lead = %+v", lead)
	}
	// phone 25 + budget 20 + sqm 15 + package 15 + name 5
	if lead.Score != 80 {
		t.Fatalf("score = %d, want 80", lead.Score)
	}
}

func TestQualified(t *testing.T) {
	cases := []struct {
		name string
		mem  extract.Memory
		want bool
	}{
		{"empty", extract.Memory{}, false},
		{"contact only", extract.Memory{extract.FactPhone: "601234567"}, false},
		{"facts but no contact", extract.Memory{
			extract.FactBudget:       200000,
			extract.FactSquareMeters: 55.0,
		}, false},
		{"qualified", extract.Memory{
			extract.FactEmail:        "a@b.pl",
			extract.FactBudget:       200000,
			extract.FactSquareMeters: 55.0,
		}, true},
	}
	for _, tc := range cases {
		if got := Qualified(tc.mem); got != tc.want {
			t.Errorf("%s: Qualified() = %v, want %v", tc.name, got, tc.want)
		}
	}
}
