package pixxearch

import (
	"context"
	"errors"
	"slices"
	"sync"
)

// pager is the part of Client a Browser needs.
type pager interface {
	Pictures(ctx context.Context, state State) (Page, error)
	PageSize() int
}

// View is a snapshot of a Browser.
type View struct {
	State    State
	Query    string // State encoded as a URL query string
	Pictures []Item
	Total    int
}

// HasMore reports whether NextPage would fetch anything.
func (v View) HasMore() bool { return len(v.Pictures) < v.Total }

// Browser owns the facet state of one search session. Every mutation
// refetches; when calls overlap, the newest one wins and the older ones
// are canceled and return ErrSuperseded without touching the view. A
// failed fetch restores the previous state.
// Browser is safe for concurrent use.
type Browser struct {
	client pager
	obs    *observer

	mu       sync.Mutex
	state    State
	pictures []Item
	total    int
	seq      uint64
	cancel   context.CancelFunc
}

// NewBrowser creates a Browser with an empty state. Nothing is fetched
// until the first call.
func NewBrowser(c *Client) *Browser {
	return newBrowser(c, c.obs)
}

func newBrowser(p pager, obs *observer) *Browser {
	return &Browser{client: p, obs: obs, pictures: []Item{}}
}

// View returns the current snapshot.
func (b *Browser) View() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewLocked()
}

// Search replaces the free-text query and fetches the first page.
func (b *Browser) Search(ctx context.Context, text string) (View, error) {
	return b.run(ctx, func(s State) (State, bool, error) {
		return s.WithText(text), false, nil
	})
}

// AddFacet adds a color, label or object and fetches the first page.
// An unknown kind is logged and ignored.
func (b *Browser) AddFacet(ctx context.Context, kind Kind, value string) (View, error) {
	return b.run(ctx, func(s State) (State, bool, error) {
		next, err := s.Add(kind, value)
		return next, false, err
	})
}

// RemoveFacet removes a color, label or object and fetches the first page.
// An unknown kind is logged and ignored.
func (b *Browser) RemoveFacet(ctx context.Context, kind Kind, value string) (View, error) {
	return b.run(ctx, func(s State) (State, bool, error) {
		next, err := s.Remove(kind, value)
		return next, false, err
	})
}

// Restore replaces the whole state from a query string, as found in a
// shared URL, and fetches the page it points at.
func (b *Browser) Restore(ctx context.Context, rawQuery string) (View, error) {
	return b.run(ctx, func(State) (State, bool, error) {
		return ParseState(rawQuery), false, nil
	})
}

// NextPage fetches the page after the loaded pictures and appends it.
// It does nothing once every hit is loaded or while another fetch is in
// flight.
func (b *Browser) NextPage(ctx context.Context) (View, error) {
	return b.run(ctx, func(s State) (State, bool, error) {
		if b.cancel != nil || len(b.pictures) >= b.total {
			return s, false, errNothingToLoad
		}
		return s.WithOffset(s.Offset() + b.client.PageSize()), true, nil
	})
}

// errNothingToLoad short-circuits a mutation without fetching.
var errNothingToLoad = errors.New("nothing to load")

// run applies mutate under the lock, then fetches outside of it. mutate
// also reports whether the fetched page is appended to the loaded ones.
func (b *Browser) run(ctx context.Context, mutate func(State) (State, bool, error)) (View, error) {
	b.mu.Lock()
	next, appendPage, err := mutate(b.state)
	if err != nil {
		v := b.viewLocked()
		b.mu.Unlock()
		switch {
		case errors.Is(err, errNothingToLoad):
			return v, nil
		case errors.Is(err, ErrUnknownKind):
			b.obs.warn("facet change ignored", "error", err)
			return v, nil
		default:
			return v, err
		}
	}

	if b.cancel != nil {
		b.cancel()
	}
	b.seq++
	token := b.seq
	fetchCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	prev := b.state
	b.state = next
	b.mu.Unlock()
	defer cancel()

	page, err := b.client.Pictures(fetchCtx, next)

	b.mu.Lock()
	defer b.mu.Unlock()
	if token != b.seq {
		return b.viewLocked(), ErrSuperseded
	}
	b.cancel = nil
	if err != nil {
		b.state = prev
		return b.viewLocked(), err
	}

	if appendPage {
		b.pictures = append(b.pictures, page.Pictures...)
	} else {
		b.pictures = slices.Clone(page.Pictures)
		if b.pictures == nil {
			b.pictures = []Item{}
		}
	}
	b.total = page.Total
	return b.viewLocked(), nil
}

func (b *Browser) viewLocked() View {
	return View{
		State:    b.state,
		Query:    b.state.Encode(),
		Pictures: slices.Clone(b.pictures),
		Total:    b.total,
	}
}
