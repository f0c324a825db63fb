package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestSnapshotSave(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "snapshots")

	snapshot := &Snapshot{
		Version:         SnapshotVersion,
		RNGSeed:         42,
		Episode:         1500,
		Weights:         []float64{-1, -50, 50, -0.8},
		PreferredLevels: []int{2},
		Bookmark: &Bookmark{
			Type:        BookmarkGoalReached,
			Episode:     1500,
			Description: "Test bookmark",
		},
	}

	path, err := SaveSnapshot(snapshot, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	expectedName := "snapshot_1500_goal_reached.json"
	if filepath.Base(path) != expectedName {
		t.Errorf("Expected filename %s, got %s", expectedName, filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading snapshot: %v", err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("invalid snapshot JSON: %v", err)
	}

	if decoded.Version != SnapshotVersion || decoded.RNGSeed != 42 || decoded.Episode != 1500 {
		t.Errorf("header mismatch: %+v", decoded)
	}
	if len(decoded.Weights) != 4 || decoded.Weights[2] != 50 {
		t.Errorf("weights mismatch: %v", decoded.Weights)
	}
	if decoded.Bookmark == nil || decoded.Bookmark.Type != BookmarkGoalReached {
		t.Errorf("bookmark mismatch: %+v", decoded.Bookmark)
	}
}

func TestSnapshotFilenameWithoutBookmark(t *testing.T) {
	tmpDir := t.TempDir()

	path, err := SaveSnapshot(&Snapshot{Version: SnapshotVersion, Episode: 7}, tmpDir)
	if err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if filepath.Base(path) != "snapshot_7.json" {
		t.Errorf("unexpected filename %s", filepath.Base(path))
	}
}
