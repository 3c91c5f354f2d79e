package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dpx190/data-eng-hw/internal/report"
)

type fakeReports struct {
	users       int64
	providers   []string
	topProperty report.PropertyCount
	impressions map[string]int64
	topAd       report.AdCount
	topAds      []report.AdCount
	err         error
}

func (f *fakeReports) UniqueUsers(ctx context.Context) (int64, error) {
	return f.users, f.err
}

func (f *fakeReports) DistinctProviders(ctx context.Context) ([]string, error) {
	return f.providers, f.err
}

func (f *fakeReports) MostChangedProperty(ctx context.Context) (report.PropertyCount, error) {
	if f.topProperty.Property == "" && f.err == nil {
		return report.PropertyCount{}, report.ErrNoData
	}
	return f.topProperty, f.err
}

func (f *fakeReports) ImpressionCount(ctx context.Context, provider, date string) (int64, error) {
	return f.impressions[provider+"/"+date], f.err
}

func (f *fakeReports) TopAdForSegment(ctx context.Context, property, value string) (report.AdCount, error) {
	if f.topAd.AdID == "" && f.err == nil {
		return report.AdCount{}, report.ErrNoData
	}
	return f.topAd, f.err
}

func (f *fakeReports) TopAdsByReach(ctx context.Context, limit int) ([]report.AdCount, error) {
	if limit < len(f.topAds) {
		return f.topAds[:limit], f.err
	}
	return f.topAds, f.err
}

func get(t *testing.T, reports report.Repository, path string) *httptest.ResponseRecorder {
	t.Helper()
	h := NewHandler(reports)
	router := NewRouter(h)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, &fakeReports{}, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "ok" {
		t.Fatalf("expected body \"ok\", got %q", body)
	}
}

func TestUniqueUsers(t *testing.T) {
	rec := get(t, &fakeReports{users: 41}, "/api/reports/unique-users")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["uniqueUsers"] != 41 {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestProviders_EmptyIsJSONArray(t *testing.T) {
	rec := get(t, &fakeReports{}, "/api/reports/providers")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string][]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["providers"] == nil {
		t.Fatal("expected empty array, got null")
	}
}

func TestTopProperty_NoData(t *testing.T) {
	rec := get(t, &fakeReports{}, "/api/reports/top-property")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestImpressions_Defaults(t *testing.T) {
	f := &fakeReports{impressions: map[string]int64{
		report.DefaultProvider + "/" + report.DefaultDate: 17,
	}}
	rec := get(t, f, "/api/reports/impressions")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Provider    string `json:"provider"`
		Date        string `json:"date"`
		Impressions int64  `json:"impressions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Provider != report.DefaultProvider || body.Impressions != 17 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestImpressions_BadDate(t *testing.T) {
	rec := get(t, &fakeReports{}, "/api/reports/impressions?date=not-a-date")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTopAd_OK(t *testing.T) {
	f := &fakeReports{topAd: report.AdCount{AdID: "ad-7", Count: 33}}
	rec := get(t, f, "/api/reports/top-ad?property=politics&value=moderate")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body report.AdCount
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.AdID != "ad-7" {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestTopAds_BadLimit(t *testing.T) {
	rec := get(t, &fakeReports{}, "/api/reports/top-ads?limit=zero")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTopAds_Limit(t *testing.T) {
	f := &fakeReports{topAds: []report.AdCount{
		{AdID: "ad-1", Count: 50},
		{AdID: "ad-2", Count: 40},
		{AdID: "ad-3", Count: 30},
	}}
	rec := get(t, f, "/api/reports/top-ads?limit=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string][]report.AdCount
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body["ads"]) != 2 {
		t.Fatalf("unexpected ads: %v", body["ads"])
	}
}
