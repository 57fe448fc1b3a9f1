package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCollectChunksExcludesBinariesAndGeneratedTrees(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "main.go"), []byte("package main\n"))
	writeFile(t, filepath.Join(root, "README.md"), []byte("# hello\n"))
	writeFile(t, filepath.Join(root, "logo.png"), []byte{0x89, 0x50, 0x4e, 0x47})
	writeFile(t, filepath.Join(root, "data.bin"), []byte{0x00, 0x01, 0x02})
	writeFile(t, filepath.Join(root, "tool"), []byte{0x7f, 'E', 'L', 'F', 0x00})
	writeFile(t, filepath.Join(root, ".git", "HEAD"), []byte("ref: refs/heads/main\n"))
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "index.js"), []byte("module.exports = 1\n"))

	chunks, fileCount, err := CollectChunks(root)
	if err != nil {
		t.Fatalf("CollectChunks: %v", err)
	}
	if fileCount != 2 {
		t.Errorf("fileCount = %d, want 2", fileCount)
	}
	if len(chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(chunks))
	}

	joined := strings.Join(chunks, "\n")
	for _, want := range []string{"File: main.go", "File: README.md"} {
		if !strings.Contains(joined, want) {
			t.Errorf("chunks missing %q", want)
		}
	}
	for _, banned := range []string{"logo.png", "node_modules", "HEAD", "tool"} {
		if strings.Contains(joined, banned) {
			t.Errorf("chunks should not contain %q", banned)
		}
	}
}

func TestCollectChunksCapsContentButCountsFiles(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < maxChunks+10; i++ {
		writeFile(t, filepath.Join(root, "f"+string(rune('a'+i%26))+"_"+string(rune('a'+i/26))+".txt"), []byte("x\n"))
	}

	chunks, fileCount, err := CollectChunks(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != maxChunks {
		t.Errorf("chunks = %d, want cap %d", len(chunks), maxChunks)
	}
	if fileCount != maxChunks+10 {
		t.Errorf("fileCount = %d, want %d", fileCount, maxChunks+10)
	}
}
