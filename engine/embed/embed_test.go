package embed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

// fakeClient is a scriptable embedding model.
type fakeClient struct {
	loadErr   error
	loadCalls atomic.Int32
	loadDelay chan struct{} // when non-nil, Load blocks until closed

	dims    int
	embedFn func(text string) ([]float32, error)
}

func (f *fakeClient) Load(ctx context.Context) error {
	f.loadCalls.Add(1)
	if f.loadDelay != nil {
		<-f.loadDelay
	}
	return f.loadErr
}

func (f *fakeClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if f.embedFn != nil {
		return f.embedFn(text)
	}
	vec := make([]float32, f.dims)
	for i := range vec {
		vec[i] = 1
	}
	return vec, nil
}

func newService(c *fakeClient, dims int) *Service {
	return New(c, Options{Dimensions: dims}, nil, nil)
}

func TestEmbedBatchAlignment(t *testing.T) {
	client := &fakeClient{dims: 4}
	svc := newService(client, 4)

	texts := []string{"one", "two", "three"}
	vecs, err := svc.EmbedBatch(context.Background(), texts)
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("got %d vectors for %d texts", len(vecs), len(texts))
	}
	for i, v := range vecs {
		if len(v) != 4 {
			t.Errorf("vector %d has %d dims, want 4", i, len(v))
		}
	}
}

func TestEmbedBatchEmptyInputGetsZeroVector(t *testing.T) {
	client := &fakeClient{dims: 3, embedFn: func(text string) ([]float32, error) {
		t.Fatalf("Embed called for blank input %q", text)
		return nil, nil
	}}
	svc := newService(client, 3)

	vecs, err := svc.EmbedBatch(context.Background(), []string{"", "   ", "\n\t"})
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range vecs {
		for _, x := range v {
			if x != 0 {
				t.Errorf("vector %d not all-zero", i)
				break
			}
		}
	}
}

func TestEmbedBatchFailedItemsDegrade(t *testing.T) {
	// Items 1 and 3 fail; they get zero vectors, others embed normally.
	calls := 0
	client := &fakeClient{dims: 2, embedFn: func(text string) ([]float32, error) {
		calls++
		if text == "bad-b" || text == "bad-d" {
			return nil, errors.New("model hiccup")
		}
		return []float32{0.5, 0.5}, nil
	}}
	svc := newService(client, 2)

	vecs, err := svc.EmbedBatch(context.Background(), []string{"a", "bad-b", "c", "bad-d", "e"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs) != 5 {
		t.Fatalf("got %d vectors, want 5", len(vecs))
	}

	isZero := func(v []float32) bool {
		for _, x := range v {
			if x != 0 {
				return false
			}
		}
		return true
	}
	for i, wantZero := range []bool{false, true, false, true, false} {
		if isZero(vecs[i]) != wantZero {
			t.Errorf("vector %d zero=%v, want %v", i, isZero(vecs[i]), wantZero)
		}
	}
	if calls != 5 {
		t.Errorf("embed called %d times, want 5 (failures must not abort)", calls)
	}
}

func TestEmbedBatchDimensionMismatchDegrades(t *testing.T) {
	client := &fakeClient{embedFn: func(text string) ([]float32, error) {
		return []float32{1, 2, 3}, nil // wrong size
	}}
	svc := newService(client, 8)

	vecs, err := svc.EmbedBatch(context.Background(), []string{"x"})
	if err != nil {
		t.Fatal(err)
	}
	if len(vecs[0]) != 8 {
		t.Fatalf("vector has %d dims, want 8", len(vecs[0]))
	}
	for _, x := range vecs[0] {
		if x != 0 {
			t.Fatal("mismatched vector should degrade to zeros")
		}
	}
}

func TestEmbedBatchContextCancelAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &fakeClient{dims: 2, embedFn: func(text string) ([]float32, error) {
		cancel() // cancel after the first item
		return []float32{1, 1}, nil
	}}
	svc := newService(client, 2)

	_, err := svc.EmbedBatch(ctx, []string{"a", "b", "c"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestEmbedTruncatesLongInput(t *testing.T) {
	var got string
	client := &fakeClient{dims: 1, embedFn: func(text string) ([]float32, error) {
		got = text
		return []float32{1}, nil
	}}
	svc := New(client, Options{Dimensions: 1, TruncateAt: 10}, nil, nil)

	if _, err := svc.EmbedBatch(context.Background(), []string{strings.Repeat("x", 50)}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 10 {
		t.Fatalf("embedded %d bytes, want 10", len(got))
	}
}

func TestTruncateKeepsValidUTF8(t *testing.T) {
	client := &fakeClient{dims: 1}
	svc := New(client, Options{Dimensions: 1, TruncateAt: 5}, nil, nil)

	// "日" is 3 bytes; cutting at 5 lands mid-rune.
	out := svc.truncate("日本語")
	if !strings.HasPrefix("日本語", out) {
		t.Fatalf("truncate produced %q", out)
	}
	if len(out) != 3 {
		t.Fatalf("got %d bytes, want 3 (backed off partial rune)", len(out))
	}
}

func TestLoadHappensOnce(t *testing.T) {
	client := &fakeClient{dims: 1}
	svc := newService(client, 1)

	for i := 0; i < 3; i++ {
		if _, err := svc.EmbedBatch(context.Background(), []string{fmt.Sprintf("t%d", i)}); err != nil {
			t.Fatal(err)
		}
	}
	if n := client.loadCalls.Load(); n != 1 {
		t.Fatalf("Load called %d times, want 1", n)
	}
}

func TestLoadSingleFlight(t *testing.T) {
	release := make(chan struct{})
	client := &fakeClient{dims: 1, loadDelay: release}
	svc := newService(client, 1)

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.EmbedBatch(context.Background(), []string{"hello"})
		}(i)
	}

	close(release)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("caller %d: %v", i, err)
		}
	}
	if got := client.loadCalls.Load(); got != 1 {
		t.Fatalf("Load called %d times under contention, want 1", got)
	}
}

func TestLoadFailureSurfacesAndRetries(t *testing.T) {
	client := &fakeClient{dims: 1, loadErr: errors.New("weights unavailable")}
	svc := newService(client, 1)

	if _, err := svc.EmbedBatch(context.Background(), []string{"x"}); err == nil {
		t.Fatal("expected load error")
	}

	// A later call must retry the load rather than being stuck.
	client.loadErr = nil
	if _, err := svc.EmbedBatch(context.Background(), []string{"x"}); err != nil {
		t.Fatalf("retry after failed load: %v", err)
	}
	if got := client.loadCalls.Load(); got != 2 {
		t.Fatalf("Load called %d times, want 2", got)
	}
}

func TestEmbedOne(t *testing.T) {
	client := &fakeClient{dims: 3}
	svc := newService(client, 3)

	vec, err := svc.EmbedOne(context.Background(), "question text")
	if err != nil {
		t.Fatal(err)
	}
	if len(vec) != 3 {
		t.Fatalf("got %d dims, want 3", len(vec))
	}
}
