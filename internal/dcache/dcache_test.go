package dcache

import (
	"path/filepath"
	"testing"
)

func TestPutGetRoundTrip(t *testing.T) {
	c, err := OpenAt(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	snap := &Snapshot{
		Exports: map[string][]string{"pkg": {"a", "b"}},
		Failed:  []string{"broken"},
	}
	if err := c.Put("/proj", snap); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := c.Get("/proj")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.Schema != schemaVersion {
		t.Fatalf("schema = %d", got.Schema)
	}
	if len(got.Exports["pkg"]) != 2 || len(got.Failed) != 1 || got.Failed[0] != "broken" {
		t.Fatalf("got %+v", got)
	}
}

func TestGetMissingProject(t *testing.T) {
	c, err := OpenAt(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	_, ok, err := c.Get("/never-seen")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected miss")
	}
}

func TestProjectsKeyedSeparately(t *testing.T) {
	c, err := OpenAt(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	if err := c.Put("/proj-a", &Snapshot{Exports: map[string][]string{"x": {"a"}}}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if _, ok, _ := c.Get("/proj-b"); ok {
		t.Fatal("snapshots must be keyed per project root")
	}
}

func TestDrop(t *testing.T) {
	c, err := OpenAt(filepath.Join(t.TempDir(), "cache"))
	if err != nil {
		t.Fatalf("OpenAt: %v", err)
	}
	if err := c.Put("/proj", &Snapshot{}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := c.Drop("/proj"); err != nil {
		t.Fatalf("Drop: %v", err)
	}
	if _, ok, _ := c.Get("/proj"); ok {
		t.Fatal("expected miss after Drop")
	}
	// Drop отсутствующего снапшота не является ошибкой
	if err := c.Drop("/proj"); err != nil {
		t.Fatalf("second Drop: %v", err)
	}
}

func TestNilCacheIsInert(t *testing.T) {
	var c *DiskCache
	if err := c.Put("/p", &Snapshot{}); err != nil {
		t.Fatalf("nil Put: %v", err)
	}
	if _, ok, err := c.Get("/p"); ok || err != nil {
		t.Fatalf("nil Get: ok=%v err=%v", ok, err)
	}
}
