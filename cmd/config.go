package cmd

import (
	"github.com/spf13/viper"
)

// Config service settings
type Config struct {
	// DevMode development mode (default: false)
	DevMode bool `mapstructure:"dev" yaml:"dev"`
	// Pprof expose pprof on localhost:6060 (default: false)
	Pprof bool `mapstructure:"pprof" yaml:"pprof"`

	// Origin server origin (default: http://localhost:3000)
	Origin string `mapstructure:"origin" yaml:"origin"`
	// Port server port (default: 3000)
	Port int `mapstructure:"port" yaml:"port"`

	// JWT access token verification settings
	JWT struct {
		// Secret HMAC key shared with the token-issuing service
		Secret string `mapstructure:"secret" yaml:"secret"`
	} `mapstructure:"jwt" yaml:"jwt"`

	// Realtime realtime layer tuning
	Realtime struct {
		// TypingExpirySeconds how long a typing signal lives without refresh (default: 6)
		TypingExpirySeconds int `mapstructure:"typingExpirySeconds" yaml:"typingExpirySeconds"`
	} `mapstructure:"realtime" yaml:"realtime"`
}

func setConfigDefaults() {
	viper.SetDefault("origin", "http://localhost:3000")
	viper.SetDefault("port", 3000)
	viper.SetDefault("realtime.typingExpirySeconds", 6)
}
