package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"govcon/research/internal/models"
)

const samPage = `{
  "totalRecords": 2,
  "opportunitiesData": [
    {
      "noticeId": "abc123",
      "title": "Rack Server Refresh",
      "solicitationNumber": "36C10B25Q0042",
      "fullParentPathName": "VETERANS AFFAIRS, DEPARTMENT OF.VETERANS AFFAIRS, DEPARTMENT OF",
      "department": "VETERANS AFFAIRS, DEPARTMENT OF",
      "postedDate": "2026-05-01",
      "type": "Combined Synopsis/Solicitation",
      "typeOfSetAsideDescription": "Total Small Business Set-Aside (FAR 19.5)",
      "responseDeadLine": "2026-05-30T17:00:00-04:00",
      "naicsCode": "334111",
      "classificationCode": "7B21",
      "active": "Yes",
      "award": {"amount": "125000.50"},
      "placeOfPerformance": {"city": {"code": "4000", "name": "Arlington"}, "state": {"code": "VA", "name": "Virginia"}},
      "description": "https://api.sam.gov/prod/opportunities/v1/noticedesc?noticeid=abc123"
    },
    {"noticeId": "", "title": "Missing id"}
  ]
}`

func TestNotice_Row(t *testing.T) {
	var page Page
	require.NoError(t, json.Unmarshal([]byte(samPage), &page))
	require.Len(t, page.OpportunitiesData, 2)

	row, err := page.OpportunitiesData[0].Row()
	require.NoError(t, err)

	assert.True(t, row.Active)
	assert.Equal(t, []models.NAICSEntry{{Code: "334111"}}, row.NAICS)
	require.NotNil(t, row.ContractValueMax)
	assert.Equal(t, "125000.5", row.ContractValueMax.String())
	assert.Nil(t, row.ContractValueMin)

	sol := row.ToSolicitation()
	assert.Equal(t, "abc123", sol.ID)
	assert.Equal(t, "VA", sol.State)
	assert.Equal(t, "Arlington", sol.City)
	assert.Equal(t, "334111", sol.NAICSCodes)
	assert.Equal(t, "active", sol.Status)

	_, err = page.OpportunitiesData[1].Row()
	assert.Error(t, err)
}

func TestFlexibleBool(t *testing.T) {
	cases := map[string]bool{`"Yes"`: true, `"no"`: false, `true`: true, `0`: false, `1`: true, `{}`: false}
	for input, want := range cases {
		var b FlexibleBool
		require.NoError(t, json.Unmarshal([]byte(input), &b), input)
		assert.Equal(t, want, bool(b), input)
	}
}

func TestContentHash_Stable(t *testing.T) {
	row := models.OpportunityRow{NoticeID: "abc", Title: "Servers"}
	first, err := ContentHash(row)
	require.NoError(t, err)
	second, err := ContentHash(row)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	row.Title = "Servers and storage"
	changed, err := ContentHash(row)
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}

// memoryStore mirrors the hash-based change detection of the opportunity table.
type memoryStore struct {
	mu     sync.Mutex
	hashes map[string]string
	fail   map[string]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{hashes: map[string]string{}, fail: map[string]bool{}}
}

func (m *memoryStore) UpsertOpportunity(_ context.Context, row models.OpportunityRow, hash string) (models.IngestOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[row.NoticeID] {
		return "", errors.New("connection reset")
	}
	existing, ok := m.hashes[row.NoticeID]
	m.hashes[row.NoticeID] = hash
	switch {
	case !ok:
		return models.IngestNew, nil
	case existing == hash:
		return models.IngestSkipped, nil
	default:
		return models.IngestUpdated, nil
	}
}

func TestIngest_ChangeDetection(t *testing.T) {
	store := newMemoryStore()
	ing := NewIngester(store, nil, zaptest.NewLogger(t))
	ctx := context.Background()
	notices := []Notice{
		{NoticeID: "a", Title: "Servers"},
		{NoticeID: "b", Title: "Storage"},
		{NoticeID: "", Title: "Broken"},
	}

	stats, err := ing.Ingest(ctx, notices)
	require.NoError(t, err)
	assert.Equal(t, Stats{New: 2, Errors: 1, Total: 3}, stats)

	notices[1].Title = "Storage arrays"
	store.fail["c"] = true
	stats, err = ing.Ingest(ctx, append(notices[:2], Notice{NoticeID: "c", Title: "Cabling"}))
	require.NoError(t, err)
	assert.Equal(t, Stats{Updated: 1, Skipped: 1, Errors: 1, Total: 3}, stats)
}

func TestIngest_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewIngester(newMemoryStore(), nil, nil).Ingest(ctx, []Notice{{NoticeID: "a", Title: "x"}})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSAMClient_Search(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = map[string]string{
			"api_key":    q.Get("api_key"),
			"postedFrom": q.Get("postedFrom"),
			"limit":      q.Get("limit"),
			"offset":     q.Get("offset"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samPage))
	}))
	defer srv.Close()

	client := NewSAMClient("key-1", srv.URL, 0, srv.Client())
	page, err := client.Search(context.Background(), PageRequest{PostedFrom: "05/01/2026", PostedTo: "05/31/2026", Limit: 100, Offset: 200})
	require.NoError(t, err)

	assert.Equal(t, 2, page.TotalRecords)
	assert.Equal(t, map[string]string{"api_key": "key-1", "postedFrom": "05/01/2026", "limit": "100", "offset": "200"}, got)
}

func TestSAMClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewSAMClient("key", srv.URL, 0, srv.Client()).Search(context.Background(), PageRequest{Limit: 10})

	assert.ErrorContains(t, err, "SAM API returned status 429")
}

type pagedSearcher struct {
	total   int
	offsets []int
}

func (p *pagedSearcher) Search(_ context.Context, req PageRequest) (Page, error) {
	p.offsets = append(p.offsets, req.Offset)
	page := Page{TotalRecords: p.total}
	for i := req.Offset; i < min(req.Offset+req.Limit, p.total); i++ {
		page.OpportunitiesData = append(page.OpportunitiesData, Notice{NoticeID: "n-" + strconv.Itoa(i), Title: fmt.Sprintf("Notice %d", i)})
	}
	return page, nil
}

func TestIngestRange_Pages(t *testing.T) {
	searcher := &pagedSearcher{total: 250}
	ing := NewIngester(newMemoryStore(), nil, zaptest.NewLogger(t))

	stats, err := ing.IngestRange(context.Background(), searcher, "05/01/2026", "05/31/2026")
	require.NoError(t, err)

	assert.Equal(t, []int{0, 100, 200}, searcher.offsets)
	assert.Equal(t, Stats{New: 250, Total: 250}, stats)
}

func TestUnwrapDescription(t *testing.T) {
	cases := map[string]string{
		`plain text`:                                  "plain text",
		`{"description":"<p>Deliver 12 servers</p>"}`: "<p>Deliver 12 servers</p>",
		`"{\"description\":\"nested\"}"`:              "nested",
		`{"error":"Description Not Found"}`:           "Description Not Found",
	}
	for input, want := range cases {
		assert.Equal(t, want, unwrapDescription(input, 0), input)
	}
}

func TestSAMClient_FetchDescription(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-1", r.URL.Query().Get("api_key"))
		switch r.URL.Query().Get("noticeid") {
		case "abc123":
			_, _ = w.Write([]byte(`{"description":"The contractor shall deliver 12 servers."}`))
		case "empty":
			_, _ = w.Write([]byte(`{"error":"Description not found"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	client := NewSAMClient("key-1", srv.URL, 0, srv.Client())
	ctx := context.Background()

	text, err := client.FetchDescription(ctx, srv.URL+"/noticedesc?noticeid=abc123")
	require.NoError(t, err)
	assert.Equal(t, "The contractor shall deliver 12 servers.", text)

	_, err = client.FetchDescription(ctx, srv.URL+"/noticedesc?noticeid=empty")
	assert.ErrorIs(t, err, ErrDescriptionNotFound)

	_, err = client.FetchDescription(ctx, srv.URL+"/noticedesc?noticeid=missing")
	assert.ErrorIs(t, err, ErrDescriptionNotFound)
}

type fakeDescriber map[string]string

func (f fakeDescriber) FetchDescription(_ context.Context, descURL string) (string, error) {
	if text, ok := f[descURL]; ok {
		return text, nil
	}
	return "", ErrDescriptionNotFound
}

type capturingStore struct {
	rows []models.OpportunityRow
}

func (c *capturingStore) UpsertOpportunity(_ context.Context, row models.OpportunityRow, _ string) (models.IngestOutcome, error) {
	c.rows = append(c.rows, row)
	return models.IngestNew, nil
}

func TestIngest_ResolvesLinkedDescriptions(t *testing.T) {
	store := &capturingStore{}
	describer := fakeDescriber{"https://api.sam.gov/desc?noticeid=a": "Deliver 12 servers."}
	ing := NewIngester(store, describer, zaptest.NewLogger(t))

	_, err := ing.Ingest(context.Background(), []Notice{
		{NoticeID: "a", Title: "Servers", Description: "https://api.sam.gov/desc?noticeid=a"},
		{NoticeID: "b", Title: "Storage", Description: "https://api.sam.gov/desc?noticeid=b"},
		{NoticeID: "c", Title: "Cabling", Description: "Inline text"},
	})
	require.NoError(t, err)

	require.Len(t, store.rows, 3)
	assert.Equal(t, "Deliver 12 servers.", store.rows[0].Description)
	assert.Empty(t, store.rows[1].Description)
	assert.Equal(t, "Inline text", store.rows[2].Description)
}
