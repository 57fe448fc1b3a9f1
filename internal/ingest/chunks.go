package ingest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Limits keeping the analysis prompt inside model context windows.
const (
	maxChunkBytes = 16 * 1024
	maxChunks     = 40
	maxFileBytes  = 512 * 1024
)

// excludedExtensions are file types that never carry analyzable source.
var excludedExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true,
	".svg": true, ".webp": true, ".bmp": true,
	".zip": true, ".tar": true, ".gz": true, ".bz2": true, ".xz": true, ".7z": true,
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".a": true, ".o": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".ppt": true, ".pptx": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".wav": true,
	".ttf": true, ".otf": true, ".woff": true, ".woff2": true, ".eot": true,
	".lock": true, ".sum": true,
	".bin": true, ".dat": true, ".db": true, ".sqlite": true,
	".jar": true, ".war": true, ".class": true, ".pyc": true, ".wasm": true,
}

// skippedDirs are trees that inflate chunk counts without adding signal.
var skippedDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true, "dist": true,
	"build": true, "target": true, "__pycache__": true, ".venv": true,
	".idea": true, ".vscode": true,
}

// CollectChunks walks a cloned checkout and returns text chunks suitable for
// an analysis prompt plus the number of files visited. Binary formats and
// generated trees are excluded; the walk stops once the chunk budget is
// spent.
func CollectChunks(root string) (chunks []string, fileCount int, err error) {
	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}
		if d.IsDir() {
			if skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if excludedExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		info, ierr := d.Info()
		if ierr != nil || info.Size() > maxFileBytes {
			return nil
		}

		data, rerr := os.ReadFile(path)
		if rerr != nil || looksBinary(data) {
			return nil
		}

		fileCount++
		if len(chunks) >= maxChunks {
			return nil // keep counting files, stop accumulating content
		}

		rel, rerr := filepath.Rel(root, path)
		if rerr != nil {
			rel = path
		}
		content := string(data)
		if len(content) > maxChunkBytes {
			content = content[:maxChunkBytes]
		}
		chunks = append(chunks, fmt.Sprintf("File: %s\n%s", filepath.ToSlash(rel), content))
		return nil
	})
	if walkErr != nil {
		return nil, 0, fmt.Errorf("walking checkout: %w", walkErr)
	}
	return chunks, fileCount, nil
}

// looksBinary checks the first kilobyte for NUL bytes.
func looksBinary(data []byte) bool {
	n := len(data)
	if n > 1024 {
		n = 1024
	}
	for _, b := range data[:n] {
		if b == 0 {
			return true
		}
	}
	return false
}
