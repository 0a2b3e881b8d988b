// Command scorecard scores mystery-shopping evaluations per segment, role and filter.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/scorecard/cmd"
	"github.com/huangsam/scorecard/internal/iocache"
)

func main() {
	err := cmd.Execute()
	iocache.CloseCaching()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
