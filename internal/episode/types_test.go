package episode

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDecodeDocument(t *testing.T) {
	data := `{
		"episode_id": "ep-0001",
		"device_info": {"device_name": "Pixel 7"},
		"task_info": {
			"category": "shopping",
			"meta_task": "buy_item",
			"task": "buy wool socks",
			"instruction": "Open the shopping app.",
			"app": ["Amazon"]
		},
		"steps": [
			{"step": 1, "screenshot": "s1.png", "action": "CLICK", "info": [[500, 250]]},
			{"step": 2, "screenshot": "s2.png", "action": "TEXT", "info": "wool socks"}
		]
	}`

	doc, err := Decode(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.EpisodeID != "ep-0001" {
		t.Errorf("EpisodeID = %q", doc.EpisodeID)
	}
	if doc.DeviceInfo.DeviceName != "Pixel 7" {
		t.Errorf("DeviceName = %q", doc.DeviceInfo.DeviceName)
	}
	if doc.TaskInfo.Category != "shopping" || len(doc.TaskInfo.Apps) != 1 {
		t.Errorf("TaskInfo = %+v", doc.TaskInfo)
	}
	if len(doc.Steps) != 2 {
		t.Fatalf("Steps = %d, want 2", len(doc.Steps))
	}
	if string(doc.Steps[0].Info) != "[[500, 250]]" {
		t.Errorf("raw info not preserved: %s", doc.Steps[0].Info)
	}
}

func TestDecodeMissingEpisodeID(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{"steps": []}`)); err == nil {
		t.Fatal("expected error for missing episode_id")
	}
}

func TestDecodeBadJSON(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{"episode_id": `)); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ep.json")
	data := `{"episode_id": "ep-0009", "device_info": {"device_name": "Pixel"}, "task_info": {}, "steps": []}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.EpisodeID != "ep-0009" {
		t.Errorf("EpisodeID = %q", doc.EpisodeID)
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
