package logging

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// prune removes the oldest log files in dir so that at most maxFiles-1 remain,
// leaving room for the file about to be created.
func prune(dir string, maxFiles int) error {
	if maxFiles <= 0 {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	type logFile struct {
		path    string
		modTime time.Time
	}
	var files []logFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, logFilePrefix) || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, logFile{path: filepath.Join(dir, name), modTime: info.ModTime()})
	}
	excess := len(files) - (maxFiles - 1)
	if excess <= 0 {
		return nil
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].path < files[j].path
		}
		return files[i].modTime.Before(files[j].modTime)
	})
	for _, f := range files[:excess] {
		os.Remove(f.path)
	}
	return nil
}
