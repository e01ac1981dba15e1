package config

import (
	"os"
	"path/filepath"
	"testing"
)

func newTestManager(t *testing.T) *ConfigManager {
	t.Helper()
	return NewConfigManagerWithPath(filepath.Join(t.TempDir(), "config.yaml"))
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cm := newTestManager(t)

	config, err := cm.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if config.MaxItems != 100 {
		t.Errorf("MaxItems = %d, want 100", config.MaxItems)
	}
	if config.DefaultHostname != "localhost" {
		t.Errorf("DefaultHostname = %q, want localhost", config.DefaultHostname)
	}
	if config.HistoryLocation != "" {
		t.Errorf("HistoryLocation = %q, want empty", config.HistoryLocation)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	cm := newTestManager(t)

	saved := &Config{
		MaxItems:        250,
		HistoryLocation: "/tmp/history.db",
		DefaultHostname: "workstation",
	}
	if err := cm.Save(saved); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := cm.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *loaded != *saved {
		t.Errorf("Load() = %+v, want %+v", loaded, saved)
	}
}

func TestSave_Validation(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"valid", Config{MaxItems: 100, DefaultHostname: "localhost"}, false},
		{"zero max items", Config{MaxItems: 0}, true},
		{"negative max items", Config{MaxItems: -1}, true},
		{"max items too large", Config{MaxItems: 10001}, true},
		{"largest allowed", Config{MaxItems: 10000, DefaultHostname: "x"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm := newTestManager(t)
			err := cm.Save(&tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("Save() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSave_FillsMissingHostname(t *testing.T) {
	cm := newTestManager(t)

	config := &Config{MaxItems: 50}
	if err := cm.Save(config); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if config.DefaultHostname != "localhost" {
		t.Errorf("DefaultHostname = %q, want localhost", config.DefaultHostname)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	cm := newTestManager(t)
	if err := os.WriteFile(cm.GetConfigPath(), []byte("max_items: [not an int"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := cm.Load(); err == nil {
		t.Error("Load() expected error for malformed file")
	}
}

func TestLoad_RejectsInvalidStoredValue(t *testing.T) {
	cm := newTestManager(t)
	if err := os.WriteFile(cm.GetConfigPath(), []byte("max_items: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := cm.Load(); err == nil {
		t.Error("Load() expected validation error for max_items 0")
	}
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		want    string
		wantErr bool
	}{
		{"max-items", "max-items", "500", "500", false},
		{"history-location", "history-location", "/data/copies.db", "/data/copies.db", false},
		{"default-hostname", "default-hostname", "laptop", "laptop", false},
		{"max-items non-numeric", "max-items", "lots", "", true},
		{"max-items out of range", "max-items", "0", "", true},
		{"unknown key", "color-scheme", "dark", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cm := newTestManager(t)
			err := cm.Update(tt.key, tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Update() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			got, err := cm.Get(tt.key)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestGet_DefaultHistoryLocation(t *testing.T) {
	cm := newTestManager(t)

	got, err := cm.Get("history-location")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "[default]" {
		t.Errorf("Get(history-location) = %q, want [default]", got)
	}
}

func TestGet_UnknownKey(t *testing.T) {
	cm := newTestManager(t)
	if _, err := cm.Get("color-scheme"); err == nil {
		t.Error("Get() expected error for unknown key")
	}
}

func TestList(t *testing.T) {
	cm := newTestManager(t)
	if err := cm.Update("default-hostname", "laptop"); err != nil {
		t.Fatal(err)
	}

	got, err := cm.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	want := map[string]string{
		"max-items":        "100",
		"history-location": "[default]",
		"default-hostname": "laptop",
	}
	for key, value := range want {
		if got[key] != value {
			t.Errorf("List()[%q] = %q, want %q", key, got[key], value)
		}
	}
}
