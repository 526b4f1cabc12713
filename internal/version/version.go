// ABOUTME: Build identification constants
// ABOUTME: Single source of truth for product name and version
package version

const (
	// Version is the semantic version of this build.
	Version = "0.1.0"

	// Product is the user-facing tool name.
	Product = "Retime"

	// Manufacturer identifies the project in logs and monitor output.
	Manufacturer = "Retime Project"
)
