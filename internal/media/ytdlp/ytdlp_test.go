package ytdlp

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCommonArgsIncludeOptionalFlags(t *testing.T) {
	plain := New("yt-dlp", "", "").commonArgs()
	if len(plain) != 1 || plain[0] != "--no-playlist" {
		t.Fatalf("unexpected base args: %v", plain)
	}

	full := New("yt-dlp", "/tmp/cookies.txt", "/usr/bin/node").commonArgs()
	want := []string{"--no-playlist", "--cookies", "/tmp/cookies.txt", "--js-runtimes", "node:/usr/bin/node"}
	if len(full) != len(want) {
		t.Fatalf("args = %v, want %v", full, want)
	}
	for i := range want {
		if full[i] != want[i] {
			t.Fatalf("args = %v, want %v", full, want)
		}
	}
}

func TestIsBotCheck(t *testing.T) {
	if !IsBotCheck("ERROR: Sign in to confirm you're not a bot. Use --cookies") {
		t.Fatal("bot wall not detected")
	}
	if IsBotCheck("ERROR: video unavailable") {
		t.Fatal("false positive bot detection")
	}
}

func TestFindByPrefix(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "audio.webm"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "other.mp4"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	path, err := findByPrefix(dir, "audio.")
	if err != nil {
		t.Fatalf("findByPrefix: %v", err)
	}
	if filepath.Base(path) != "audio.webm" {
		t.Fatalf("found %q", path)
	}

	if _, err := findByPrefix(dir, "video."); err == nil {
		t.Fatal("expected error for missing prefix")
	}
}
