package util

import (
	"path/filepath"
	"strings"

	"github.com/ZhaoShanGeng/antigravity2api/lib/store"
	"github.com/ZhaoShanGeng/antigravity2api/lib/store/fstore"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		// Add the word
		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	// Add any remaining text
	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupStoreFlags adds common store flags to a command
func SetupStoreFlags(cmd *cobra.Command) {
	key := "data-dir"
	cmd.PersistentFlags().String(key, "data", WrapString("Directory holding the store file. Created on first use"))

	key = "store-file"
	cmd.PersistentFlags().String(key, "tokens.json", WrapString("Name of the store file inside the data directory"))

	key = "cache-ttl"
	cmd.PersistentFlags().Duration(key, fstore.DefaultCacheTTL, WrapString("Freshness window of the read cache. Reads within this window are served from memory"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("a2a")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetStorePath resolves the configured store file location
func GetStorePath() string {
	return filepath.Join(viper.GetString("data-dir"), viper.GetString("store-file"))
}

// GetStore creates a file store from the configuration
func GetStore() store.IStore {
	return fstore.NewFileStore(fstore.Options{
		Path:     GetStorePath(),
		CacheTTL: viper.GetDuration("cache-ttl"),
	})
}
