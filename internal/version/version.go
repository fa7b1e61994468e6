// ABOUTME: Version and product identification constants
// ABOUTME: Reported in logs and the bridge hello
package version

import "fmt"

const (
	Product      = "outputselect"
	Manufacturer = "Resonate Protocol"
	Version      = "0.1.0"
)

// String returns "product version"
func String() string {
	return fmt.Sprintf("%s %s", Product, Version)
}
