package keys

import (
	"sync"
	"testing"
)

func TestNewFixedFormat(t *testing.T) {
	for i := 0; i < 1000; i++ {
		k := New()
		if len(k) != Length {
			t.Fatalf("New() = %q, length %d, want %d", k, len(k), Length)
		}
		if !Valid(k) {
			t.Fatalf("New() = %q is not Valid", k)
		}
	}
}

func TestNewUnique(t *testing.T) {
	const n = 5000
	var (
		mu   sync.Mutex
		seen = make(map[string]bool, n)
		wg   sync.WaitGroup
	)

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < n/8; i++ {
				k := New()
				mu.Lock()
				if seen[k] {
					t.Errorf("duplicate key %q", k)
				}
				seen[k] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"generated shape", "0123456789abcdefghijklmno", true},
		{"too short", "abc", false},
		{"too long", "0123456789abcdefghijklmnop", false},
		{"uppercase", "0123456789ABCDEFGHIJKLMNO", false},
		{"path traversal", "../../../../etc/passwd...", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Valid(tt.key); got != tt.want {
				t.Errorf("Valid(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}
