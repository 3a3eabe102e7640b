// ruleset-recalculate recomputes the percentages and geometric means of stored rulesets,
// e.g. after a change to the normalization rules.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//	  go run ./cmd/ruleset-recalculate --utility-id <id> [--ruleset-id <id>]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
	"bitbucket.org/mmdatafocus/tariff_backend/models"
	"bitbucket.org/mmdatafocus/tariff_backend/utils"
	"github.com/sirupsen/logrus"
)

func main() {
	utilityID := flag.String("utility-id", "", "Required: utility id")
	rulesetID := flag.Int("ruleset-id", 0, "Optional: only this ruleset (default: every ruleset of the utility)")
	adminID := flag.Int("admin-id", 1, "Admin id recorded in history")
	continueOnError := flag.Bool("continue-on-error", false, "Skip failing rulesets and continue with the others")
	flag.Parse()

	if strings.TrimSpace(*utilityID) == "" {
		fmt.Fprintln(os.Stderr, "--utility-id is required")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	if os.Getenv("REDIS_ADDRESS") != "" {
		config.ConnectRedisWithRetry()
	}
	logger := config.GetLogger()

	ctx := utils.SetUtilityIdInContext(context.Background(), strings.TrimSpace(*utilityID))
	ctx = utils.SetAdminIdInContext(ctx, *adminID)
	ctx = utils.SetAdminNameInContext(ctx, "ruleset-recalculate")

	ids := []int{*rulesetID}
	if *rulesetID == 0 {
		rulesets, err := models.GetRulesets(ctx, nil, nil)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to list rulesets: %v\n", err)
			os.Exit(1)
		}
		ids = ids[:0]
		for _, r := range rulesets {
			ids = append(ids, r.ID)
		}
	}

	failed := 0
	for _, id := range ids {
		ruleset, err := models.RecalculateRuleset(ctx, id)
		if err != nil {
			failed++
			logger.WithFields(logrus.Fields{
				"field":      "RulesetRecalculate",
				"utility_id": *utilityID,
				"ruleset_id": id,
			}).Error(err.Error())
			if !*continueOnError {
				os.Exit(1)
			}
			continue
		}
		fmt.Printf("recalculated ruleset %d (%s v%d, %d params)\n", ruleset.ID, ruleset.Name, ruleset.Version, len(ruleset.Params))
	}
	fmt.Printf("done: %d recalculated, %d failed\n", len(ids)-failed, failed)
	if failed > 0 {
		os.Exit(2)
	}
}
