package rag

import (
	"errors"
	"sync"
	"testing"

	"github.com/doclens/doclens/internal/rag/errs"
)

func TestEmbeddingUnavailableClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"Nil_Passes_Through", nil, nil},
		{"Raw_Provider_Error_Becomes_Unavailable", errors.New("api limit"), errs.ErrUnavailable},
		{"Already_Unavailable_Not_Rewrapped", errs.ErrUnavailable, errs.ErrUnavailable},
		{"Invalid_Input_Keeps_Its_Type", errs.ErrInvalidInput, errs.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := embeddingUnavailable(tt.err, "query embedding")
			if tt.want == nil {
				if got != nil {
					t.Fatalf("got %v, want nil", got)
				}
				return
			}
			if !errors.Is(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if errors.Is(tt.want, errs.ErrInvalidInput) && errors.Is(got, errs.ErrUnavailable) {
				t.Errorf("invalid input rewrapped as unavailable: %v", got)
			}
		})
	}
}

func TestDocumentLocksEvictWhenUncontended(t *testing.T) {
	locks := newDocumentLocks()

	unlock := locks.lock("doc-1")
	locks.mu.Lock()
	if len(locks.locks) != 1 {
		t.Errorf("held lock not tracked, map has %d entries", len(locks.locks))
	}
	locks.mu.Unlock()

	unlock()
	locks.mu.Lock()
	if len(locks.locks) != 0 {
		t.Errorf("released lock not evicted, map has %d entries", len(locks.locks))
	}
	locks.mu.Unlock()
}

func TestDocumentLocksSerializeSameId(t *testing.T) {
	locks := newDocumentLocks()

	const workers = 20
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("doc-1")
			counter++
			unlock()
		}()
	}
	wg.Wait()

	if counter != workers {
		t.Errorf("counter = %d, want %d", counter, workers)
	}
	locks.mu.Lock()
	if len(locks.locks) != 0 {
		t.Errorf("map not empty after all workers released, %d entries left", len(locks.locks))
	}
	locks.mu.Unlock()
}
