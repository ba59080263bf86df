package packager

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Mandala-Network/Mandala-CLI/pkg/logging"
)

// ArchivePrefix names the archives this CLI produces. It doubles as an
// exclude pattern so a build context never swallows a previous run's archive.
const ArchivePrefix = "agent-"

// DefaultExcludes are the patterns filtered out of every archive: dependency
// directories, version control, build outputs, environment secret files and
// prior deployment archives. A trailing "*" makes the pattern a prefix match
// against any path segment; a literal pattern matches that relative path and
// everything below it.
var DefaultExcludes = []string{
	"node_modules",
	".git",
	"dist",
	"build",
	"__pycache__",
	".venv",
	".env*",
	ArchivePrefix + "*",
	"deploy-*",
	"*.tgz",
}

// Pack creates a gzip-compressed tar archive of the build context in the OS
// temp directory and returns its path. Everything not excluded is included;
// there is no inclusion list. The caller removes the archive when done.
func Pack(buildContext string) (string, error) {
	info, err := os.Stat(buildContext)
	if err != nil {
		return "", fmt.Errorf("build context %s: %w", buildContext, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("build context %s is not a directory", buildContext)
	}

	archivePath := filepath.Join(os.TempDir(), fmt.Sprintf("%s%s.tgz", ArchivePrefix, uuid.NewString()))
	f, err := os.Create(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive: %w", err)
	}

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)

	count := 0
	walkErr := filepath.WalkDir(buildContext, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(buildContext, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if Excluded(rel, DefaultExcludes) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		fi, err := d.Info()
		if err != nil {
			return err
		}
		// Symlinks and other irregular entries are not meaningful on the
		// node side; skip them rather than archiving dangling targets.
		if !fi.Mode().IsRegular() && !fi.IsDir() {
			return nil
		}

		hdr, err := tar.FileInfoHeader(fi, "")
		if err != nil {
			return err
		}
		hdr.Name = rel
		if fi.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}

		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		if _, err := io.Copy(tw, src); err != nil {
			return err
		}
		count++
		return nil
	})

	if walkErr == nil {
		walkErr = tw.Close()
	} else {
		tw.Close()
	}
	if err := gz.Close(); err != nil && walkErr == nil {
		walkErr = err
	}
	if err := f.Close(); err != nil && walkErr == nil {
		walkErr = err
	}

	if walkErr != nil {
		os.Remove(archivePath)
		return "", fmt.Errorf("failed to archive %s: %w", buildContext, walkErr)
	}

	logging.Debug("Packager", "Packed %d files from %s into %s", count, buildContext, archivePath)
	return archivePath, nil
}

// Excluded reports whether the slash-separated relative path matches any of
// the exclude patterns.
func Excluded(rel string, patterns []string) bool {
	segments := strings.Split(rel, "/")
	for _, pattern := range patterns {
		if strings.HasSuffix(pattern, "*") {
			prefix := strings.TrimSuffix(pattern, "*")
			if prefix == "" {
				continue
			}
			for _, seg := range segments {
				if strings.HasPrefix(seg, prefix) {
					return true
				}
			}
		} else if strings.HasPrefix(pattern, "*") {
			suffix := strings.TrimPrefix(pattern, "*")
			for _, seg := range segments {
				if strings.HasSuffix(seg, suffix) {
					return true
				}
			}
		} else if rel == pattern || strings.HasPrefix(rel, pattern+"/") {
			return true
		}
	}
	return false
}
