package tui

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// HelpRenderer renders markdown help content with Glamour and caches results.
type HelpRenderer struct {
	mu        sync.RWMutex
	theme     Theme
	width     int
	cache     map[string]string // key: contentHash, value: rendered
	renderer  *glamour.TermRenderer
	noGlamour bool // fallback for NO_COLOR or render failures
}

// NewHelpRenderer creates a new HelpRenderer with the given theme.
func NewHelpRenderer(theme Theme) *HelpRenderer {
	hr := &HelpRenderer{
		theme: theme,
		cache: make(map[string]string),
	}
	hr.initRenderer()
	return hr
}

// initRenderer creates the Glamour renderer based on theme.
func (hr *HelpRenderer) initRenderer() {
	if hr.theme.NoColor {
		hr.noGlamour = true
		return
	}

	// Choose style based on theme mode
	styleName := "dark"
	if hr.theme.Mode == ThemeLight {
		styleName = "light"
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(styleName),
		glamour.WithWordWrap(hr.width),
	)
	if err != nil {
		hr.noGlamour = true
		return
	}
	hr.renderer = renderer
}

// SetWidth updates the word wrap width for rendering.
func (hr *HelpRenderer) SetWidth(width int) {
	hr.mu.Lock()
	defer hr.mu.Unlock()
	if hr.width != width {
		hr.width = width
		hr.cache = make(map[string]string) // clear cache on width change
		hr.initRenderer()
	}
}

// Render renders markdown content, returning cached result if available.
func (hr *HelpRenderer) Render(markdown string) string {
	hr.mu.RLock()
	if cached, ok := hr.cache[markdown]; ok {
		hr.mu.RUnlock()
		return cached
	}
	hr.mu.RUnlock()

	var rendered string
	if hr.noGlamour || hr.renderer == nil {
		rendered = markdown
	} else {
		out, err := hr.renderer.Render(markdown)
		if err != nil {
			rendered = markdown
		} else {
			rendered = out
		}
	}

	hr.mu.Lock()
	hr.cache[markdown] = rendered
	hr.mu.Unlock()

	return rendered
}

// MainHelpMarkdown returns the full help content as Markdown.
func MainHelpMarkdown() string {
	return `# loginchallenge

## Login

| Key | Action |
|-----|--------|
| Tab / ↓ | Next control |
| Shift+Tab / ↑ | Previous control |
| Enter (ID) | Move to password |
| Enter (password or button) | Log in |
| Esc | Quit |

The login button is enabled only when both ID and password are filled in.
While a login is in progress every control is disabled.

## Errors

| Title | Meaning |
|-------|---------|
| ログインエラー | The ID or password was rejected |
| ネットワークエラー | The server could not be reached |
| サーバーエラー | The server failed or is throttling attempts |
| システムエラー | Anything else |

Press Enter or Esc to close an error.

## Home

| Key | Action |
|-----|--------|
| r | Reload your profile |
| l | Log out and return to the login screen |
| ? | Toggle this help |
| q | Quit |

---

*Press any key to return*
`
}
