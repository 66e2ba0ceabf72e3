package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	schemaCmd "github.com/speakeasy-api/dtoschema/cmd/dtoschema/commands/schema"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// getVersionInfo returns version information, prioritizing ldflags values over build info
func getVersionInfo() (string, string, string) {
	if version != "dev" || commit != "none" || date != "unknown" {
		return version, commit, date
	}

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return version, commit, date
	}

	moduleVersion := version
	if buildInfo.Main.Version != "" && buildInfo.Main.Version != "(devel)" {
		moduleVersion = buildInfo.Main.Version
	}

	vcsCommit := commit
	vcsTime := date

	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case "vcs.revision":
			vcsCommit = setting.Value[:min(7, len(setting.Value))]
		case "vcs.time":
			vcsTime = setting.Value
		}
	}

	return moduleVersion, vcsCommit, vcsTime
}

var rootCmd = &cobra.Command{
	Use:   "dtoschema",
	Short: "Generate JSON Schema documents from data transfer object descriptors",
	Long: `Generate JSON Schema documents from data transfer object descriptors.

A catalog describes data classes, their typed properties, documentation
attributes and validation rules. This CLI provides tools to:

- Generate a JSON Schema (draft 2020-12) document per class
- Validate YAML or JSON payloads against a generated schema
- List the classes a catalog declares`,
	Version: version,
}

func init() {
	currentVersion, currentCommit, currentDate := getVersionInfo()

	rootCmd.Version = currentVersion

	var versionTemplate strings.Builder
	versionTemplate.WriteString(`{{printf "%s" .Version}}`)

	if currentCommit != "none" && currentCommit != "" {
		versionTemplate.WriteString("\nBuild: " + currentCommit)
	}

	if currentDate != "unknown" && currentDate != "" {
		versionTemplate.WriteString("\nBuilt: " + currentDate)
	}

	rootCmd.SetVersionTemplate(versionTemplate.String())

	schemaCmd.Apply(rootCmd)

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
