package loadbalancer

import (
	"sync"
	"testing"
)

func TestNextRotates(t *testing.T) {
	rr := NewRoundRobin("product", []string{"http://a", "http://b", "http://c"})

	want := []string{"http://a", "http://b", "http://c", "http://a"}
	for i, w := range want {
		if got := rr.Next(); got != w {
			t.Fatalf("call %d: Next() = %q, want %q", i, got, w)
		}
	}
}

func TestNextEmptyPool(t *testing.T) {
	rr := NewRoundRobin("product", nil)
	if got := rr.Next(); got != "" {
		t.Errorf("Next() = %q, want empty", got)
	}
}

func TestNextConcurrentDistribution(t *testing.T) {
	servers := []string{"http://a", "http://b"}
	rr := NewRoundRobin("recommendation", servers)

	var mu sync.Mutex
	counts := map[string]int{}
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := rr.Next()
			mu.Lock()
			counts[s]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if counts["http://a"] != 50 || counts["http://b"] != 50 {
		t.Errorf("distribution = %v, want 50/50", counts)
	}
}

func TestServersReturnsCopy(t *testing.T) {
	rr := NewRoundRobin("product", []string{"http://a"})
	s := rr.Servers()
	s[0] = "http://mutated"
	if rr.Next() != "http://a" {
		t.Error("Servers() exposed internal slice")
	}
}
