package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Crux-AI-Tech/propertysocial-sub000/internal/config"
)

func TestSetDefaults(t *testing.T) {
	cfg := &config.Config{}
	cfg.SetDefaults()

	if cfg.Service.Port != 8094 {
		t.Errorf("Port = %d, want 8094", cfg.Service.Port)
	}
	if cfg.Service.MaxPageSize != 100 || cfg.Service.DefaultPageSize != 20 {
		t.Errorf("page sizes = %d/%d, want 100/20", cfg.Service.MaxPageSize, cfg.Service.DefaultPageSize)
	}
	if cfg.Elasticsearch.PropertyIndex != "properties" {
		t.Errorf("PropertyIndex = %q, want properties", cfg.Elasticsearch.PropertyIndex)
	}
	if cfg.Elasticsearch.TextBoost.Title != 3.0 {
		t.Errorf("title boost = %v, want 3.0", cfg.Elasticsearch.TextBoost.Title)
	}
	if cfg.Recommend.CityBoost != 2.0 || cfg.Recommend.FeatureShare != 0.5 {
		t.Errorf("recommend defaults = %+v", cfg.Recommend)
	}
	if len(cfg.Facets.PriceBands) != 6 {
		t.Errorf("price bands = %v, want 6 edges", cfg.Facets.PriceBands)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestSetDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &config.Config{}
	cfg.Service.Port = 9000
	cfg.Facets.PriceBands = []float64{50000, 150000}
	cfg.SetDefaults()

	if cfg.Service.Port != 9000 {
		t.Errorf("Port = %d, explicit value overwritten", cfg.Service.Port)
	}
	if len(cfg.Facets.PriceBands) != 2 {
		t.Errorf("PriceBands = %v, explicit value overwritten", cfg.Facets.PriceBands)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{"defaults", func(*config.Config) {}, false},
		{"bad port", func(c *config.Config) { c.Service.Port = 70000 }, true},
		{"default page above max", func(c *config.Config) { c.Service.DefaultPageSize = 200 }, true},
		{"missing index", func(c *config.Config) { c.Elasticsearch.PropertyIndex = "" }, true},
		{"zero batch size", func(c *config.Config) { c.Elasticsearch.RebuildBatchSize = -1 }, true},
		{"feature share above 1", func(c *config.Config) { c.Recommend.FeatureShare = 1.5 }, true},
		{"unsorted price bands", func(c *config.Config) { c.Facets.PriceBands = []float64{200, 100} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.SetDefaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	file := `
service:
  port: 9100
elasticsearch:
  property_index: listings
`
	if err := os.WriteFile(path, []byte(file), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SEARCH_PORT", "9200")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Service.Port != 9200 {
		t.Errorf("Port = %d, env override did not win", cfg.Service.Port)
	}
	if cfg.Elasticsearch.PropertyIndex != "listings" {
		t.Errorf("PropertyIndex = %q, file value lost", cfg.Elasticsearch.PropertyIndex)
	}
	if cfg.Service.MaxPageSize != 100 {
		t.Errorf("MaxPageSize = %d, default not applied", cfg.Service.MaxPageSize)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.Service.Port != 8094 {
		t.Errorf("Port = %d, want default", cfg.Service.Port)
	}
}
