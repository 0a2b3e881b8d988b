//go:build basic || database

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

var (
	// sharedScorecardPath holds the path to a shared scorecard binary built once for all tests.
	sharedScorecardPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getScorecardBinary returns the path to the scorecard binary, building it once if needed.
func getScorecardBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		// Create a temp directory for the binary
		var err error
		tempDir, err = os.MkdirTemp("", "scorecard-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binPath := filepath.Join(tempDir, "scorecard")
		buildCmd := exec.Command("go", "build", "-o", binPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		err = buildCmd.Run()
		if err != nil {
			panic(fmt.Sprintf("failed to build scorecard: %v", err))
		}

		sharedScorecardPath = binPath
	})

	return sharedScorecardPath
}

// testDataDir is the fixture data directory, relative to the project root.
var testDataDir = filepath.Join("core", "testdata", "data")

// scorecardCommand builds a scorecard invocation run from the project root
// against the fixture data, with extra environment entries appended.
func scorecardCommand(env []string, args ...string) *exec.Cmd {
	cmd := exec.Command(getScorecardBinary(), args...)
	cmd.Dir = ".." // Run from project root
	cmd.Env = append(os.Environ(), "SCORECARD_DATA_DIR="+testDataDir, "SCORECARD_COLOR=no")
	cmd.Env = append(cmd.Env, env...)
	return cmd
}
