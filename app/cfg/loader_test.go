package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestConfigFields(t *testing.T) {
	c := &Cfg{
		DBHost:                "localhost",
		DBPort:                "5432",
		DBUser:                "test_user",
		DBPassword:            "test_password",
		DBName:                "test_db",
		DBSSLMode:             "disable",
		RedisAddr:             "localhost:6379",
		CacheTTL:              300,
		CacheEnabled:          true,
		CatalogDir:            "./catalog",
		Port:                  "8080",
		SchedulerInterval:     86400,
		InterTaskDelay:        1500,
		TaskTimeout:           600,
		FeaturedMinSavingsPct: 30,
		CountryMinSavingsPct:  15,
		GlobalMinSavingsPct:   10,
		TopDeals:              10,
		DealExpiryHours:       24,
		BackfillWindowDays:    365,
		BackfillSkipPoints:    30,
		BackfillFloorRatio:    0.65,
		BackfillCeilRatio:     2.0,
		HistoryRetentionDays:  365,
		Timezone:              "UTC",
		Debug:                 true,
		Version:               "test-version",
	}

	if c.DBHost != "localhost" {
		t.Errorf("Expected DB host 'localhost', got '%s'", c.DBHost)
	}
	if c.Port != "8080" {
		t.Errorf("Expected port '8080', got '%s'", c.Port)
	}
	if c.SchedulerInterval != 86400 {
		t.Errorf("Expected scheduler interval 86400, got %d", c.SchedulerInterval)
	}
	if c.FeaturedMinSavingsPct != 30 {
		t.Errorf("Expected featured threshold 30, got %f", c.FeaturedMinSavingsPct)
	}
	if c.CountryMinSavingsPct != 15 {
		t.Errorf("Expected country threshold 15, got %f", c.CountryMinSavingsPct)
	}
	if c.GlobalMinSavingsPct != 10 {
		t.Errorf("Expected global threshold 10, got %f", c.GlobalMinSavingsPct)
	}
	if c.TopDeals != 10 {
		t.Errorf("Expected top deals 10, got %d", c.TopDeals)
	}
	if c.BackfillWindowDays != 365 {
		t.Errorf("Expected backfill window 365, got %d", c.BackfillWindowDays)
	}
	if c.BackfillSkipPoints != 30 {
		t.Errorf("Expected backfill skip threshold 30, got %d", c.BackfillSkipPoints)
	}
	if !c.CacheEnabled {
		t.Error("Expected cache enabled")
	}
	if c.Version != "test-version" {
		t.Errorf("Expected version 'test-version', got '%s'", c.Version)
	}
}

func TestGetPanicsWhenUnloaded(t *testing.T) {
	original := globalCfg
	defer Set(original)
	globalCfg = nil

	defer func() {
		if recover() == nil {
			t.Error("Expected Get to panic before Load")
		}
	}()
	Get()
}

func TestSetAndGet(t *testing.T) {
	original := globalCfg
	defer Set(original)

	c := &Cfg{Port: "9090"}
	Set(c)

	if Get() != c {
		t.Error("Expected Get to return the configuration passed to Set")
	}
	if Get().Port != "9090" {
		t.Errorf("Expected port '9090', got '%s'", Get().Port)
	}
}

func TestApplyTimezone(t *testing.T) {
	if err := applyTimezone("UTC"); err != nil {
		t.Errorf("Expected UTC to be valid, got: %v", err)
	}
	if err := applyTimezone("Not/AZone"); err == nil {
		t.Error("Expected an error for an invalid timezone")
	}
}
