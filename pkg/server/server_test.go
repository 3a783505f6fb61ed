package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurifrl/bankrec/pkg/config"
	"github.com/yurifrl/bankrec/pkg/index"
	"github.com/yurifrl/bankrec/pkg/models"
)

type staticSource struct {
	entries []models.IndexEntry
	err     error
}

func (s staticSource) ListOperations(filter index.Filter) ([]models.IndexEntry, error) {
	if s.err != nil {
		return nil, s.err
	}
	return filter.Apply(s.entries), nil
}

func testEntries() []models.IndexEntry {
	credit := decimal.RequireFromString("1500")
	debit := decimal.RequireFromString("-45.20")
	return []models.IndexEntry{
		{
			StatementID:   "547034-2024-004",
			Sequence:      "0015",
			Title:         "SEPA CREDIT TRANSFER",
			ValueDate:     models.DatePtr(models.NewDate(2024, time.April, 4)),
			Amount:        &credit,
			Direction:     models.DirectionCredit,
			Communication: models.StringPtr("INV 220006"),
			Counterparty:  models.Counterparty{Name: models.StringPtr("CLIENT ONE")},
		},
		{
			StatementID: "547034-2024-004",
			Sequence:    "0016",
			Title:       "DOMICILIATION",
			ValueDate:   models.DatePtr(models.NewDate(2024, time.April, 5)),
			Amount:      &debit,
			Direction:   models.DirectionDebit,
		},
	}
}

func newTestServer(src OperationSource) *Server {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Parser:  config.ParserConfig{DefaultCurrency: "EUR"},
		Matcher: config.MatcherConfig{WindowDays: 120, MaxCandidates: 5},
		Server:  config.ServerConfig{AllowedOrigins: []string{"http://localhost:5173"}},
	}
	return New(cfg, log.New(io.Discard), src)
}

func do(t *testing.T, s *Server, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(staticSource{}), http.MethodGet, "/api/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestOperations(t *testing.T) {
	s := newTestServer(staticSource{entries: testEntries()})

	t.Run("json with filters", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/operations?min=0&counterparty=client", "", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Count      int                 `json:"count"`
			Operations []models.IndexEntry `json:"operations"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 1, body.Count)
		require.Len(t, body.Operations, 1)
		assert.Equal(t, "0015", body.Operations[0].Sequence)
	})

	t.Run("csv", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/operations?format=csv&end=2024-04-30", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
		assert.Equal(t,
			"Date,Counterparty,Communication,Amount\n"+
				"2024-04-04,CLIENT ONE,INV 220006,1500.00\n"+
				"2024-04-05,DOMICILIATION,,-45.20\n",
			rec.Body.String())
	})

	t.Run("bad filter", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/operations?start=yesterday", "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid filter")
	})
}

func TestOperationsIndexUnavailable(t *testing.T) {
	s := newTestServer(staticSource{err: errors.New("no index")})

	rec := do(t, s, http.MethodGet, "/api/operations", "", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMatch(t *testing.T) {
	// Arrange
	s := newTestServer(staticSource{entries: testEntries()})
	body := `{"invoices":[
		{"id":"inv-1","number":"220006","amount":"1500.00","invoiceDate":"2024-04-01","clientName":"Client One"},
		{"id":"inv-2","number":"220007","amount":999,"invoiceDate":"2024-04-01"}
	]}`

	// Act
	rec := do(t, s, http.MethodPost, "/api/match", "application/json", body)

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	var report struct {
		Matched int `json:"matched"`
		NoMatch int `json:"noMatch"`
		Items   []struct {
			Status     string `json:"status"`
			Candidates []struct {
				Confidence int `json:"confidence"`
				Entry      struct {
					Sequence string `json:"sequence"`
				} `json:"entry"`
			} `json:"candidates"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Matched)
	assert.Equal(t, 1, report.NoMatch)
	require.Len(t, report.Items, 2)
	require.Len(t, report.Items[0].Candidates, 1)
	assert.Equal(t, "0015", report.Items[0].Candidates[0].Entry.Sequence)
	assert.GreaterOrEqual(t, report.Items[0].Candidates[0].Confidence, 80)
	assert.Empty(t, report.Items[1].Candidates)
}

func TestMatchYAML(t *testing.T) {
	s := newTestServer(staticSource{entries: testEntries()})
	body := "- number: \"220006\"\n  amount: 1500\n  invoiceDate: 2024-04-01\n"

	rec := do(t, s, http.MethodPost, "/api/match", "application/yaml", body)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"matched":1`)
}

func TestMatchRejectsMalformedBody(t *testing.T) {
	s := newTestServer(staticSource{entries: testEntries()})

	rec := do(t, s, http.MethodPost, "/api/match", "application/json", "{not json")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParse(t *testing.T) {
	s := newTestServer(staticSource{})
	lines := []string{
		"ACME SPRL",
		"BE68539007547034 EUR",
		"Extrait N° 2024-004",
		"Date Montant",
		"01-04-2024",
		"0015 SEPA CREDIT TRANSFER",
		"Communication: INV 220006",
		"04-04 1500,00 +",
	}
	payload, err := json.Marshal(map[string]any{"name": "extrait-004.txt", "lines": lines})
	require.NoError(t, err)

	rec := do(t, s, http.MethodPost, "/api/parse", "application/json", string(payload))

	require.Equal(t, http.StatusOK, rec.Code)
	var st models.Statement
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, "547034-2024-004", st.StatementID)
	require.Len(t, st.Operations, 1)
	assert.Equal(t, "1500", st.Operations[0].Amount.String())
}

func TestParseRejectsNonStatement(t *testing.T) {
	s := newTestServer(staticSource{})

	rec := do(t, s, http.MethodPost, "/api/parse", "application/json", `{"name":"letter","lines":["Dear customer"]}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing account anchor")
}

func TestCORS(t *testing.T) {
	s := newTestServer(staticSource{})
	req := httptest.NewRequest(http.MethodOptions, "/api/operations", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()

	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
