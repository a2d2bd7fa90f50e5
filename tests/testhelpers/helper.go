// Package testhelpers provides helpers for integration tests.
package testhelpers

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/testcontainers/testcontainers-go"

	"github.com/sqlio/sqlio/core"
)

// GetContainerProvider returns the container provider type to use for the tests.
// If we detect podman is available, we use it, otherwise we use docker.
func GetContainerProvider() testcontainers.ProviderType {
	if _, err := exec.LookPath("podman"); err == nil {
		fmt.Println("Podman detected. Remember to set TESTCONTAINERS_RYUK_CONTAINER_PRIVILEGED=true;")
		return testcontainers.ProviderPodman
	}
	return testcontainers.ProviderDocker
}

// CountRows runs every query on its own connection and returns the total
// number of rows returned.
func CountRows(ctx context.Context, conn core.ConnFactory, queries ...string) (int, error) {
	total := 0
	for _, q := range queries {
		driver, err := conn(ctx)
		if err != nil {
			return 0, err
		}

		stream, err := driver.Query(ctx, q)
		if err != nil {
			driver.Close()
			return 0, fmt.Errorf("%s: %w", q, err)
		}

		res := core.NewResult(nil, nil)
		err = res.SetIter(stream)
		driver.Close()
		if err != nil {
			return 0, fmt.Errorf("%s: %w", q, err)
		}
		total += res.Len()
	}
	return total, nil
}

// GetTestDataPath returns the path to the testdata directory.
func GetTestDataPath() (string, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to get current file path")
	}

	return filepath.Join(filepath.Dir(currentFile), "../testdata"), nil
}

// GetTestDataFile returns a file from the testdata directory.
func GetTestDataFile(filename string) (*os.File, error) {
	testDataPath, err := GetTestDataPath()
	if err != nil {
		return nil, err
	}

	path := filepath.Join(testDataPath, filename)
	return os.Open(path)
}
