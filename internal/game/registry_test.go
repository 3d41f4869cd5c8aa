package game

import (
	"sync"
	"testing"
)

func TestRegistryGetOrCreate(t *testing.T) {
	reg := NewRegistry(fixedShuffler{}, nil)

	table := reg.GetOrCreate("friday-night")
	if table == nil {
		t.Fatal("expected a table")
	}
	if again := reg.GetOrCreate("friday-night"); again != table {
		t.Error("the same name must resolve to the same table")
	}
	if other := reg.GetOrCreate("saturday"); other == table {
		t.Error("different names must resolve to different tables")
	}
	if got := reg.Get("friday-night"); got != table {
		t.Error("Get must find existing tables")
	}
	if got := reg.Get("missing"); got != nil {
		t.Error("Get must not create tables")
	}
}

func TestRegistryConcurrentCreate(t *testing.T) {
	reg := NewRegistry(fixedShuffler{}, nil)

	const goroutines = 16
	tables := make([]*Table, goroutines)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tables[i] = reg.GetOrCreate("contended")
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if tables[i] != tables[0] {
			t.Fatal("concurrent joins must share one table")
		}
	}
	if len(reg.Infos()) != 1 {
		t.Errorf("expected exactly one table, got %d", len(reg.Infos()))
	}
}
