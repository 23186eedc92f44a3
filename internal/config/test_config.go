package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	def := defaultConfig()
	return &Config{
		Database: DatabaseConfig{
			Path:    ":memory:",
			Timeout: 1 * time.Second,
		},
		Provider: ProviderConfig{
			BaseURL:     "http://127.0.0.1:0/v1",
			APIKey:      "test-key",
			HTTPTimeout: 5 * time.Second,
			UserAgent:   "polarstock-test/1.0",
			Orientation: "landscape",
			Locale:      "en-US",
			Breaker:     def.Provider.Breaker,
		},
		Engine: def.Engine,
		Export: ExportConfig{
			Directory: "",
			Preset:    "default",
		},
		UI:    def.UI,
		Media: def.Media,
		Keys:  def.Keys,
		Log:   LogConfig{Level: "off"},
	}
}
