package front

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quoteworks/creditledger/internal/catalog"
	"github.com/quoteworks/creditledger/internal/config"
	"github.com/quoteworks/creditledger/internal/db"
	"github.com/quoteworks/creditledger/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, errOpen := db.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, errOpen)
	require.NoError(t, db.Migrate(conn))

	snapshot, errCatalog := catalog.New(map[string]config.RewardRuleConfig{
		"QUOTE_ACCEPTED":  {Amount: 5, MaxPerActionPerDay: 50},
		"REVIEW_RECEIVED": {Amount: 0},
	}, 100)
	require.NoError(t, errCatalog)

	service := ledger.New(conn, catalog.NewStore(snapshot), ledger.Config{
		WelcomeBonus:        90,
		DecayAmount:         1,
		LowBalanceThreshold: 7,
	})

	router := gin.New()
	RegisterFrontRoutes(router, service)
	return router
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestFrontAPI_TouchAndBalance(t *testing.T) {
	router := newTestRouter(t)

	created := doJSON(router, http.MethodPost, "/v0/accounts/acct-1", "")
	require.Equal(t, http.StatusOK, created.Code)

	balance := doJSON(router, http.MethodGet, "/v0/accounts/acct-1/balance", "")
	require.Equal(t, http.StatusOK, balance.Code)
	require.Contains(t, balance.Body.String(), `"balance":90`)
	require.Contains(t, balance.Body.String(), `"state":"PRO"`)

	missing := doJSON(router, http.MethodGet, "/v0/accounts/never-seen/balance", "")
	require.Equal(t, http.StatusNotFound, missing.Code)
}

func TestFrontAPI_RewardFlow(t *testing.T) {
	router := newTestRouter(t)

	payload := `{"kind":"QUOTE_ACCEPTED","correlation":{"entity_type":"quote","entity_id":"7"}}`

	first := doJSON(router, http.MethodPost, "/v0/accounts/acct-1/rewards", payload)
	require.Equal(t, http.StatusOK, first.Code)
	require.Contains(t, first.Body.String(), `"applied":true`)

	// A redelivered event is acknowledged with applied=false, not an error.
	second := doJSON(router, http.MethodPost, "/v0/accounts/acct-1/rewards", payload)
	require.Equal(t, http.StatusOK, second.Code)
	require.Contains(t, second.Body.String(), `"applied":false`)
	require.Contains(t, second.Body.String(), `"skip_reason":"duplicate_correlation"`)

	unknown := doJSON(router, http.MethodPost, "/v0/accounts/acct-1/rewards", `{"kind":"NOT_A_KIND"}`)
	require.Equal(t, http.StatusBadRequest, unknown.Code)

	malformed := doJSON(router, http.MethodPost, "/v0/accounts/acct-1/rewards", `{"kind":"QUOTE_ACCEPTED","correlation":{"entity_type":"quote"}}`)
	require.Equal(t, http.StatusBadRequest, malformed.Code)
}

func TestFrontAPI_RewardSkipBeforeAccountOmitsState(t *testing.T) {
	router := newTestRouter(t)

	// A zero-amount rule skips before any account is touched; the response
	// must not invent a state for an account it never loaded.
	skipped := doJSON(router, http.MethodPost, "/v0/accounts/acct-1/rewards", `{"kind":"REVIEW_RECEIVED"}`)
	require.Equal(t, http.StatusOK, skipped.Code)
	require.Contains(t, skipped.Body.String(), `"applied":false`)
	require.Contains(t, skipped.Body.String(), `"skip_reason":"non_positive_amount"`)
	require.NotContains(t, skipped.Body.String(), `"state"`)
	require.NotContains(t, skipped.Body.String(), "UNKNOWN")
}

func TestFrontAPI_PurchaseFlow(t *testing.T) {
	router := newTestRouter(t)

	created := doJSON(router, http.MethodPost, "/v0/purchases",
		`{"account_id":"acct-1","session_id":"cs_1","credits":100}`)
	require.Equal(t, http.StatusOK, created.Code)

	completed := doJSON(router, http.MethodPost, "/v0/purchases/callback",
		`{"session_id":"cs_1","status":"completed","credits":100}`)
	require.Equal(t, http.StatusOK, completed.Code)
	require.Contains(t, completed.Body.String(), `"result":"COMPLETED"`)

	replay := doJSON(router, http.MethodPost, "/v0/purchases/callback",
		`{"session_id":"cs_1","status":"completed","credits":100}`)
	require.Equal(t, http.StatusOK, replay.Code)
	require.Contains(t, replay.Body.String(), `"result":"ALREADY_COMPLETED"`)

	unknown := doJSON(router, http.MethodPost, "/v0/purchases/callback",
		`{"session_id":"cs_missing","status":"completed"}`)
	require.Equal(t, http.StatusNotFound, unknown.Code)
}
