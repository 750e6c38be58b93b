// User-facing tagged output. Diagnostic logging goes through
// internal/logger instead.
package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
)

var (
	tagStep  = color.New(color.FgBlue).Sprint("[STEP]")
	tagOK    = color.New(color.FgGreen).Sprint("[OK]")
	tagWarn  = color.New(color.FgYellow).Sprint("[WARN]")
	tagError = color.New(color.FgRed).Sprint("[ERROR]")
	tagInfo  = color.New(color.FgMagenta).Sprint("[INFO]")
)

func Stepf(format string, a ...interface{}) {
	fmt.Printf("%s %s\n", tagStep, fmt.Sprintf(format, a...))
}

func Okf(format string, a ...interface{}) {
	fmt.Printf("%s %s\n", tagOK, fmt.Sprintf(format, a...))
}

func Warnf(format string, a ...interface{}) {
	fmt.Printf("%s %s\n", tagWarn, fmt.Sprintf(format, a...))
}

func Infof(format string, a ...interface{}) {
	fmt.Printf("%s %s\n", tagInfo, fmt.Sprintf(format, a...))
}

func Errorf(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, "%s %s\n", tagError, fmt.Sprintf(format, a...))
}

// Banner prints a separator line around run summaries.
func Banner() {
	fmt.Println(strings.Repeat("=", 50))
}
