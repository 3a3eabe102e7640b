// seed-areas loads the area master list of a utility from a CSV file with the columns
// Area Name, Zone, City Corporation. Areas that already exist are skipped.
//
// Usage (from backend directory):
//
//	go run ./cmd/seed-areas --utility-id <id> --file areas.csv
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"bitbucket.org/mmdatafocus/tariff_backend/config"
	"bitbucket.org/mmdatafocus/tariff_backend/models"
	"bitbucket.org/mmdatafocus/tariff_backend/utils"
)

func main() {
	utilityID := flag.String("utility-id", "", "Required: utility id")
	file := flag.String("file", "", "Required: CSV file")
	adminID := flag.Int("admin-id", 1, "Admin id recorded in history")
	flag.Parse()

	if strings.TrimSpace(*utilityID) == "" || strings.TrimSpace(*file) == "" {
		fmt.Fprintln(os.Stderr, "--utility-id and --file are required")
		os.Exit(1)
	}

	f, err := os.Open(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open %s: %v\n", *file, err)
		os.Exit(1)
	}
	defer f.Close()
	inputs, err := readAreas(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", *file, err)
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	if os.Getenv("REDIS_ADDRESS") != "" {
		config.ConnectRedisWithRetry()
	}

	ctx := utils.SetUtilityIdInContext(context.Background(), strings.TrimSpace(*utilityID))
	ctx = utils.SetAdminIdInContext(ctx, *adminID)
	ctx = utils.SetAdminNameInContext(ctx, "seed-areas")

	existing, err := models.GetAreas(ctx, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load areas: %v\n", err)
		os.Exit(1)
	}
	names := make(map[string]bool, len(existing))
	for _, a := range existing {
		names[strings.ToLower(a.Name)] = true
	}

	created, skipped := 0, 0
	for i, input := range inputs {
		if names[strings.ToLower(input.Name)] {
			skipped++
			continue
		}
		if _, err := models.CreateArea(ctx, input); err != nil {
			fmt.Fprintf(os.Stderr, "row %d (%s): %v\n", i+2, input.Name, err)
			os.Exit(1)
		}
		names[strings.ToLower(input.Name)] = true
		created++
	}
	fmt.Printf("created %d areas, skipped %d existing\n", created, skipped)
}

// readAreas validates every row before anything is written.
func readAreas(r io.Reader) ([]*models.NewArea, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, errors.New("expected a header row and at least one area")
	}

	var inputs []*models.NewArea
	for i, row := range rows[1:] {
		input := &models.NewArea{}
		if len(row) > 0 {
			input.Name = strings.TrimSpace(row[0])
		}
		if len(row) > 1 {
			input.Zone = strings.TrimSpace(row[1])
		}
		if len(row) > 2 {
			input.CityCorporation = strings.TrimSpace(row[2])
		}
		if err := utils.ValidateInput(input); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}
