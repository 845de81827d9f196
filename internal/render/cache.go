package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
	lru "github.com/hashicorp/golang-lru/v2"
)

// maxRenderers bounds the number of option sets holding a renderer. The TUI
// asks for a new width on every terminal resize.
const maxRenderers = 8

// sharedRenderer serialises access to one TermRenderer, which keeps
// per-render state and must not be used by two goroutines at once.
type sharedRenderer struct {
	mu sync.Mutex
	tr *glamour.TermRenderer
}

func (s *sharedRenderer) render(content string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tr.Render(content)
}

var renderers = newRendererCache(maxRenderers)

func newRendererCache(size int) *lru.Cache[Options, *sharedRenderer] {
	cache, err := lru.New[Options, *sharedRenderer](size)
	if err != nil {
		panic(err)
	}
	return cache
}

// rendererFor returns the cached renderer for opts, building it on first use.
// Options is a comparable struct, so it is the cache key as is.
func rendererFor(opts Options) (*sharedRenderer, error) {
	if r, ok := renderers.Get(opts); ok {
		return r, nil
	}

	tr, err := newTermRenderer(opts)
	if err != nil {
		return nil, err
	}

	r := &sharedRenderer{tr: tr}
	// another goroutine may have won the race; keep its renderer
	if prev, found, _ := renderers.PeekOrAdd(opts, r); found {
		return prev, nil
	}
	return r, nil
}

// newTermRenderer builds a TermRenderer. WithStylePath accepts both standard
// style names and JSON style files.
func newTermRenderer(opts Options) (*glamour.TermRenderer, error) {
	rendererOpts := []glamour.TermRendererOption{
		glamour.WithStylePath(opts.Style),
		glamour.WithWordWrap(opts.Width),
		glamour.WithTableWrap(opts.TableWrap),
	}
	if opts.EnableEmoji {
		rendererOpts = append(rendererOpts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		rendererOpts = append(rendererOpts, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(rendererOpts...)
}

// clearCache drops every cached renderer.
func clearCache() {
	renderers.Purge()
}

// cacheSize returns the number of cached renderers.
func cacheSize() int {
	return renderers.Len()
}
