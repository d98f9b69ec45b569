// =============================================================================
// X12 EDI Validator - Main Entry Point
// =============================================================================
//
// This is the main entry point for the X12 EDI Validator CLI. It delegates
// to the Cobra commands in the cmd package.
//
// USAGE:
//   edivalidator process       - Validate every EDI file in the input directory
//   edivalidator validate FILE - Validate one file and print the findings
//   edivalidator watch         - Validate files as they arrive
//   edivalidator catalog       - Describe or export the schema catalog
//   edivalidator history       - Show recorded runs
//   edivalidator version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/                : CLI command definitions (Cobra)
//   - internal/x12        : Tokenizer, envelope assembly and structure checks
//   - internal/schema     : Element dictionary, transaction schemas, agreements
//   - internal/validation : Findings and element validation
//   - internal/loops      : Loop reconstruction and business rules
//   - internal/parser     : Parse-and-validate entry point
//   - internal/converter  : Per-file pipeline (report, history, archive)
//   - pkg/utils           : File discovery, archival and log files
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/x12-edi-validator/cmd"
)

func main() {
	cmd.Execute()
}
