// Package cli provides CLI commands for the responder application.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/example/responder/internal/config"
	"github.com/example/responder/internal/db"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the responder database and config",
		Long:  `Initialize the responder database at ~/.responder/responder.db and write a default config file if none exists.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, err := db.DefaultPath()
			if err != nil {
				return fmt.Errorf("failed to get database path: %w", err)
			}

			fmt.Printf("Initializing responder database at %s\n", dbPath)

			// Open runs the schema migrations on first connection
			if _, err := db.Open(""); err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}

			fmt.Println("✓ Database initialized successfully")

			wrote, cfgPath, err := initConfigFile()
			if err != nil {
				return fmt.Errorf("failed to initialize config: %w", err)
			}
			if wrote {
				fmt.Printf("✓ Default config written to %s\n", cfgPath)
			} else {
				fmt.Printf("✓ Config already exists at %s\n", cfgPath)
			}

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  responder channel add --name \"Main Feed\" --platform video")
			fmt.Println("  responder doctor")

			return nil
		},
	}
}

// initConfigFile writes the default config file unless one already exists.
func initConfigFile() (bool, string, error) {
	path := config.DefaultPath()

	if _, err := os.Stat(path); err == nil {
		return false, path, nil
	} else if !os.IsNotExist(err) {
		return false, path, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, path, err
	}

	raw, err := yaml.Marshal(config.Default())
	if err != nil {
		return false, path, err
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return false, path, err
	}
	return true, path, nil
}
