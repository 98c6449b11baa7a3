package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"civicproof/internal/geo"
	"civicproof/internal/identity"
	identitystore "civicproof/internal/identity/store"
	"civicproof/internal/verification/models"
	vermemory "civicproof/internal/verification/store/memory"
)

// seedFile is the YAML layout of SEED_FILE.
type seedFile struct {
	Workers []struct {
		ID         string `yaml:"id"`
		Email      string `yaml:"email"`
		Name       string `yaml:"name"`
		Department string `yaml:"department"`
		Suspended  bool   `yaml:"suspended"`
	} `yaml:"workers"`
	Reports []struct {
		ID             string   `yaml:"id"`
		Category       string   `yaml:"category"`
		Description    string   `yaml:"description"`
		Latitude       *float64 `yaml:"latitude"`
		Longitude      *float64 `yaml:"longitude"`
		BeforeImageURL string   `yaml:"before_image_url"`
		Status         string   `yaml:"status"`
	} `yaml:"reports"`
}

func loadSeed(path string, workers *identitystore.InMemoryStore, reports *vermemory.ReportStore) (int, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, fmt.Errorf("read seed file: %w", err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, 0, fmt.Errorf("parse seed file: %w", err)
	}

	now := time.Now().UTC()
	for _, w := range seed.Workers {
		status := identity.StatusActive
		if w.Suspended {
			status = identity.StatusSuspended
		}
		workers.Put(identity.Worker{
			ID:         w.ID,
			Email:      w.Email,
			Name:       w.Name,
			Department: w.Department,
			Status:     status,
			CreatedAt:  now,
		})
	}
	for _, r := range seed.Reports {
		report := models.IssueReport{
			ID:             r.ID,
			Category:       r.Category,
			Description:    r.Description,
			BeforeImageURL: r.BeforeImageURL,
			Status:         models.ReportOpen,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if r.Status != "" {
			report.Status = models.ReportStatus(r.Status)
		}
		if r.Latitude != nil && r.Longitude != nil {
			p := geo.Point{Lat: *r.Latitude, Lng: *r.Longitude}
			if err := p.Validate(); err != nil {
				return 0, 0, fmt.Errorf("report %s: %w", r.ID, err)
			}
			report.Location = &p
		}
		reports.Put(report)
	}
	return len(seed.Workers), len(seed.Reports), nil
}
