package introspect

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestExportsCachesSuccess(t *testing.T) {
	calls := 0
	loader := LoaderFunc(func(ctx context.Context, specifier string) ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	})
	i := New(loader, nil)
	names, ok := i.Exports(context.Background(), "pkg")
	if !ok || !names["a"] || !names["b"] || names["c"] {
		t.Fatalf("unexpected export set: %v ok=%v", names, ok)
	}
	if _, ok := i.Exports(context.Background(), "pkg"); !ok {
		t.Fatal("expected cached hit")
	}
	if calls != 1 {
		t.Fatalf("expected one probe, got %d", calls)
	}
}

func TestExportsFailureCachedAsNullSentinel(t *testing.T) {
	calls := 0
	loader := LoaderFunc(func(ctx context.Context, specifier string) ([]string, error) {
		calls++
		return nil, errors.New("side-effecting import blew up")
	})
	i := New(loader, nil)
	if _, ok := i.Exports(context.Background(), "broken"); ok {
		t.Fatal("expected null sentinel")
	}
	// второй вызов отвечает из кеша, probe не повторяется
	if _, ok := i.Exports(context.Background(), "broken"); ok {
		t.Fatal("expected cached null sentinel")
	}
	if calls != 1 {
		t.Fatalf("failure must be cached, got %d probes", calls)
	}
}

func TestExportsEmptySetIsNotTheSentinel(t *testing.T) {
	loader := LoaderFunc(func(ctx context.Context, specifier string) ([]string, error) {
		return []string{}, nil
	})
	i := New(loader, nil)
	names, ok := i.Exports(context.Background(), "empty")
	if !ok {
		t.Fatal("an empty export set is a valid result, not the sentinel")
	}
	if len(names) != 0 {
		t.Fatalf("expected empty set, got %v", names)
	}
}

func TestConcurrentFirstProbesDeduplicated(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	loader := LoaderFunc(func(ctx context.Context, specifier string) ([]string, error) {
		calls.Add(1)
		<-release
		return []string{"x"}, nil
	})
	i := New(loader, nil)

	const workers = 10
	var wg sync.WaitGroup
	started := make(chan struct{}, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			started <- struct{}{}
			if names, ok := i.Exports(context.Background(), "fresh"); !ok || !names["x"] {
				t.Errorf("unexpected result: %v ok=%v", names, ok)
			}
		}()
	}
	for range workers {
		<-started
	}
	close(release)
	wg.Wait()

	if got := calls.Load(); got != 1 {
		t.Fatalf("ten concurrent introspections must trigger exactly one probe, got %d", got)
	}
}

func TestSeedAndSnapshot(t *testing.T) {
	calls := 0
	loader := LoaderFunc(func(ctx context.Context, specifier string) ([]string, error) {
		calls++
		return []string{"live"}, nil
	})
	i := New(loader, nil)
	i.Seed("warm", []string{"w"})
	i.Seed("dead", nil)

	if names, ok := i.Exports(context.Background(), "warm"); !ok || !names["w"] {
		t.Fatalf("seeded record not served: %v ok=%v", names, ok)
	}
	if _, ok := i.Exports(context.Background(), "dead"); ok {
		t.Fatal("seeded sentinel not served")
	}
	if calls != 0 {
		t.Fatalf("seeded records must not probe, got %d calls", calls)
	}

	snap := i.Snapshot()
	if got := snap["warm"]; len(got) != 1 || got[0] != "w" {
		t.Fatalf("snapshot[warm] = %v", got)
	}
	if got, present := snap["dead"]; !present || got != nil {
		t.Fatalf("snapshot must keep the sentinel as nil, got %v present=%v", got, present)
	}
}

func TestSeedDoesNotOverwriteProbedRecord(t *testing.T) {
	loader := LoaderFunc(func(ctx context.Context, specifier string) ([]string, error) {
		return []string{"real"}, nil
	})
	i := New(loader, nil)
	if _, ok := i.Exports(context.Background(), "pkg"); !ok {
		t.Fatal("probe failed")
	}
	i.Seed("pkg", []string{"stale"})
	names, _ := i.Exports(context.Background(), "pkg")
	if !names["real"] || names["stale"] {
		t.Fatalf("probed record overwritten by seed: %v", names)
	}
}
