// outbox-requeue moves DEAD tariff events back to PENDING so the dispatcher retries them.
//
// Usage (from backend directory):
//
//	go run ./cmd/outbox-requeue [--utility-id <id>]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
	"bitbucket.org/mmdatafocus/tariff_backend/utils"
	"bitbucket.org/mmdatafocus/tariff_backend/workflow"
)

func main() {
	utilityID := flag.String("utility-id", "", "Optional: only this utility (default: all)")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	ctx := context.Background()
	if strings.TrimSpace(*utilityID) == "" {
		ctx = utils.SetSkipTenantScopeInContext(ctx, true)
	}
	n, err := workflow.RequeueDead(ctx, db, strings.TrimSpace(*utilityID))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to requeue: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("requeued %d dead tariff events\n", n)
}
