// Package web serves the dashboard of the monitoring server.
package web

import (
	"embed"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/sirupsen/logrus"
)

// DevModeEnv names the variable that makes GetAssets read the dashboard from
// the source tree instead of the embedded copy.
const DevModeEnv = "RADIXWALK_MONITOR_DEV"

//go:embed dist/*
var staticAssets embed.FS

// GetAssets returns the dashboard files.
func GetAssets() http.FileSystem {
	if devMode() {
		_, file, _, ok := runtime.Caller(0)
		if !ok {
			panic("cannot locate the dashboard sources")
		}

		dir := filepath.Join(filepath.Dir(file), "dist")
		logrus.WithField("dir", dir).Warn("serving dashboard from disk")

		return http.Dir(dir)
	}

	dist, err := fs.Sub(staticAssets, "dist")
	if err != nil {
		panic(err)
	}

	return http.FS(dist)
}

func devMode() bool {
	on, err := strconv.ParseBool(os.Getenv(DevModeEnv))
	return err == nil && on
}
