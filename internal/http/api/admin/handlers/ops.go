package handlers

import (
	"net/http"

	"github.com/quoteworks/creditledger/internal/catalog"
	"github.com/quoteworks/creditledger/internal/config"
	"github.com/quoteworks/creditledger/internal/ledger"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// OpsHandler handles operational admin endpoints: manual sweep trigger and
// reward catalog reload.
type OpsHandler struct {
	service      *ledger.Service
	catalogStore *catalog.Store
	configPath   string
}

// NewOpsHandler constructs an OpsHandler.
func NewOpsHandler(service *ledger.Service, catalogStore *catalog.Store, configPath string) *OpsHandler {
	return &OpsHandler{service: service, catalogStore: catalogStore, configPath: configPath}
}

// RunDecay triggers a decay sweep immediately. Safe to run alongside the
// scheduled sweep; accounts already decayed today are skipped.
func (h *OpsHandler) RunDecay(c *gin.Context) {
	report, errRun := h.service.RunDailyDecay(c.Request.Context())
	if errRun != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "decay sweep failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"accounts_processed":  report.AccountsProcessed,
		"accounts_downgraded": report.AccountsDowngraded,
		"accounts_skipped":    report.AccountsSkipped,
		"accounts_failed":     report.AccountsFailed,
	})
}

// ReloadCatalog re-reads the reward catalog from the config file and swaps
// the active snapshot. In-flight requests keep the snapshot they started
// with.
func (h *OpsHandler) ReloadCatalog(c *gin.Context) {
	ledgerCfg, errLoad := config.LoadLedgerConfig(h.configPath)
	if errLoad != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read config failed"})
		return
	}
	snapshot, errBuild := catalog.New(ledgerCfg.Rewards, ledgerCfg.MaxCreditsPerDay)
	if errBuild != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errBuild.Error()})
		return
	}
	h.catalogStore.Swap(snapshot)

	log.WithField("kinds", len(snapshot.Kinds())).Info("reward catalog reloaded")
	c.JSON(http.StatusOK, gin.H{"kinds": snapshot.Kinds()})
}

// ShowCatalog returns the active reward catalog snapshot.
func (h *OpsHandler) ShowCatalog(c *gin.Context) {
	snapshot := h.catalogStore.Current()
	kinds := snapshot.Kinds()
	rules := make([]gin.H, 0, len(kinds))
	for _, kind := range kinds {
		rule, _ := snapshot.Rule(kind)
		rules = append(rules, gin.H{
			"kind":                   string(kind),
			"amount":                 rule.Amount,
			"max_per_action_per_day": rule.MaxPerActionPerDay,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"rules":               rules,
		"max_credits_per_day": snapshot.MaxCreditsPerDay(),
	})
}
