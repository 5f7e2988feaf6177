package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPagination_LaterStartsAfterBuffer(t *testing.T) {
	f := NewFinder(Options{MaxSuggestions: 1})
	lister := &stubLister{}
	ctx := context.Background()

	page, err := f.FirstPage(ctx, lister, Request{
		Duration: 30 * time.Minute,
		From:     monday(13, 30),
		To:       monday(20, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Slots) != 1 || !page.Slots[0].End.Equal(monday(14, 0)) {
		t.Fatalf("expected slot ending 14:00, got %v", page.Slots)
	}
	if !page.NextStart.Equal(monday(14, 15)) {
		t.Errorf("expected next start 14:15, got %v", page.NextStart)
	}

	later, err := f.Later(ctx, lister, page)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !lister.lastFrom.Equal(monday(14, 15)) {
		t.Errorf("expected search lower bound 14:15, got %v", lister.lastFrom)
	}
	if !later.Slots[0].Start.Equal(monday(14, 15)) {
		t.Errorf("expected later slot at 14:15, got %v", later.Slots[0])
	}
	if len(later.History) != 2 || !later.History[1].Equal(monday(14, 15)) {
		t.Errorf("expected history [13:30 14:15], got %v", later.History)
	}

	earlier, err := f.Earlier(ctx, lister, later)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !earlier.Slots[0].Start.Equal(monday(13, 30)) {
		t.Errorf("expected earlier page back at 13:30, got %v", earlier.Slots[0])
	}
	if !lister.lastTo.Equal(monday(14, 0)) {
		t.Errorf("expected earlier upper bound 14:00, got %v", lister.lastTo)
	}
	if len(earlier.History) != 1 {
		t.Errorf("expected history to shrink to 1, got %v", earlier.History)
	}
}

func TestPagination_EarlierWithoutHistory(t *testing.T) {
	f := NewFinder(Options{MaxSuggestions: 1})
	ctx := context.Background()

	// The first slot sits at the range start, so nothing precedes it.
	page, err := f.FirstPage(ctx, &stubLister{}, Request{
		Duration: 30 * time.Minute,
		From:     monday(9, 0),
		To:       monday(20, 0),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.Earlier(ctx, &stubLister{}, page); !errors.Is(err, ErrNoEarlierSlots) {
		t.Errorf("expected ErrNoEarlierSlots, got %v", err)
	}

	empty := &Page{Request: page.Request}
	if _, err := f.Earlier(ctx, &stubLister{}, empty); !errors.Is(err, ErrNoEarlierSlots) {
		t.Errorf("expected ErrNoEarlierSlots on empty page, got %v", err)
	}
}

func TestPagination_LaterExhaustion(t *testing.T) {
	f := NewFinder(Options{MaxSuggestions: 1})
	lister := &stubLister{}
	ctx := context.Background()

	page, err := f.FirstPage(ctx, lister, Request{
		Duration: 30 * time.Minute,
		From:     monday(13, 30),
		To:       monday(14, 30),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exhausted, err := f.Later(ctx, lister, page)
	if !errors.Is(err, ErrNoLaterSlots) {
		t.Fatalf("expected ErrNoLaterSlots, got %v", err)
	}
	if exhausted == nil || !exhausted.NextStart.Equal(monday(14, 30)) {
		t.Fatalf("expected next start moved to range end, got %+v", exhausted)
	}
	if len(exhausted.Slots) != 1 {
		t.Errorf("expected shown slots to be kept, got %v", exhausted.Slots)
	}

	calls := lister.calls
	if _, err := f.Later(ctx, lister, exhausted); !errors.Is(err, ErrNoLaterSlots) {
		t.Errorf("expected ErrNoLaterSlots again, got %v", err)
	}
	if lister.calls != calls {
		t.Error("expected no backend call once the range is exhausted")
	}
}
