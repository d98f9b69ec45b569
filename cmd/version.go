// =============================================================================
// X12 EDI Validator - Version Command
// =============================================================================
//
// This file defines the 'version' command, which displays the application
// version, build information and the X12 releases it understands.
//
// COMMAND USAGE:
//   edivalidator version
//
// OUTPUT:
//   X12 EDI Validator
//   Version:    1.0.0
//   Build Date: 2024-01-01
//   Go Version: go1.24.0
//   X12:        4010, 5010, 6010, 8010
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/x12-edi-validator/internal/x12"
)

// =============================================================================
// VERSION INFORMATION
// =============================================================================
// These variables are set at build time using ldflags.
// Example build command:
//   go build -ldflags "-X 'github.com/ginjaninja78/x12-edi-validator/cmd.Version=1.0.0'"

// Version is the application version.
var Version = "1.0.0"

// BuildDate is the date the application was built.
var BuildDate = "unknown"

// =============================================================================
// VERSION COMMAND DEFINITION
// =============================================================================

// versionCmd represents the 'version' command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Long:  `Display the application version, build date, Go runtime version and supported X12 releases.`,
	Run: func(cmd *cobra.Command, args []string) {
		releases := make([]string, len(x12.KnownVersions))
		for i, v := range x12.KnownVersions {
			releases[i] = v.String()
		}

		fmt.Println("X12 EDI Validator")
		fmt.Printf("Version:    %s\n", Version)
		fmt.Printf("Build Date: %s\n", BuildDate)
		fmt.Printf("Go Version: %s\n", runtime.Version())
		fmt.Printf("X12:        %s\n", strings.Join(releases, ", "))
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

// init registers the version command with the root command.
func init() {
	rootCmd.AddCommand(versionCmd)
}
