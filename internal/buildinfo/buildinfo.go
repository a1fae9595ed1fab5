// Package buildinfo carries version metadata injected at link time via
// -ldflags "-X github.com/dkurniawan/bukukas/internal/buildinfo.Version=...".
package buildinfo

import (
	"fmt"
	"io"
)

var (
	Version = "N/A"
	Date    = "N/A"
	Commit  = "N/A"
)

// String renders the build data on one line, suitable for --version output.
func String() string {
	return fmt.Sprintf("%s (built %s, commit %s)", Version, Date, Commit)
}

// PrintBuildData writes the build data to w, one field per line.
func PrintBuildData(w io.Writer) {
	fmt.Fprintf(w, "Build version: %s\n", Version)
	fmt.Fprintf(w, "Build date: %s\n", Date)
	fmt.Fprintf(w, "Build commit: %s\n", Commit)
}
