package regexcache

import (
	"sync"
	"testing"
)

func TestGet_ValidPattern(t *testing.T) {
	Clear()
	re, err := Get(`^py/.*$`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !re.MatchString("py/sqli") {
		t.Error("expected match for 'py/sqli'")
	}
}

func TestGet_InvalidPattern(t *testing.T) {
	Clear()
	if _, err := Get(`[invalid`); err == nil {
		t.Fatal("expected error for invalid pattern")
	}
}

func TestGet_Caching(t *testing.T) {
	Clear()
	pattern := `ghsa-\w+`

	re1, _ := Get(pattern)
	re2, _ := Get(pattern)
	if re1 != re2 {
		t.Error("expected cached regexp to be reused")
	}
	if Size() != 1 {
		t.Errorf("expected cache size 1, got %d", Size())
	}
}

func TestGet_Concurrent(t *testing.T) {
	Clear()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := Get(`^npm://.*$`); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	if Size() != 1 {
		t.Errorf("expected single cached entry, got %d", Size())
	}
}
