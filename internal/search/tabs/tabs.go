// Package tabs implements the result tab controller: a fixed set of panes
// of which exactly one is active.
package tabs

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/a-h/templ"
	apperrors "github.com/louisbranch/bakery.search/internal/platform/errors"
)

// Pane identifiers used by the search page.
const (
	PaneLocal   = "local"
	PaneDBpedia = "dbpedia"
)

// BarID is the DOM id of the rendered tab bar.
const BarID = "result-tabs"

// Pane is one tab and the panel it controls.
type Pane struct {
	ID       string
	LabelKey string
}

// Localizer resolves tab labels.
type Localizer interface {
	Lookup(key, lang string) string
}

// Controller tracks the active pane. It is safe for concurrent use.
type Controller struct {
	mu     sync.Mutex
	panes  []Pane
	active string
}

// DefaultPanes returns the local and DBpedia panes in display order.
func DefaultPanes() []Pane {
	return []Pane{
		{ID: PaneLocal, LabelKey: "web.tabs.local"},
		{ID: PaneDBpedia, LabelKey: "web.tabs.dbpedia"},
	}
}

// New builds a controller over panes with defaultID active. An unknown or
// empty defaultID activates the first pane.
func New(defaultID string, panes ...Pane) *Controller {
	if len(panes) == 0 {
		panes = DefaultPanes()
	}
	c := &Controller{panes: append([]Pane(nil), panes...)}
	c.active = c.panes[0].ID
	if c.index(defaultID) >= 0 {
		c.active = strings.TrimSpace(defaultID)
	}
	return c
}

// Activate makes id the only active pane. An unknown id is rejected and
// leaves the current selection in place.
func (c *Controller) Activate(id string) error {
	id = strings.TrimSpace(id)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index(id) < 0 {
		return apperrors.WithMetadata(apperrors.CodeUnknownPane, "unknown pane", map[string]string{"pane": id})
	}
	c.active = id
	return nil
}

// Active returns the id of the active pane.
func (c *Controller) Active() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// IsActive reports whether id is the active pane.
func (c *Controller) IsActive(id string) bool {
	return c.Active() == strings.TrimSpace(id)
}

// Panes returns the panes in display order.
func (c *Controller) Panes() []Pane {
	return append([]Pane(nil), c.panes...)
}

// Bar renders the tab buttons. Each button posts to activateURL + pane id.
func (c *Controller) Bar(loc Localizer, lang, activateURL string) templ.Component {
	active := c.Active()
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div id="` + BarID + `" class="tabs" role="tablist">`)
		for _, pane := range c.panes {
			selected := pane.ID == active
			class := "tab-button"
			if selected {
				class += " active"
			}
			b.WriteString(`<button type="button" role="tab" class="` + class + `"`)
			b.WriteString(` data-tab="` + templ.EscapeString(pane.ID) + `"`)
			if selected {
				b.WriteString(` aria-selected="true"`)
			} else {
				b.WriteString(` aria-selected="false"`)
			}
			b.WriteString(` hx-post="` + templ.EscapeString(activateURL+pane.ID) + `" hx-swap="none">`)
			b.WriteString(templ.EscapeString(label(loc, lang, pane)))
			b.WriteString(`</button>`)
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// PanelClass returns the CSS class of the panel for id.
func (c *Controller) PanelClass(id string) string {
	if c.IsActive(id) {
		return "tab-content active"
	}
	return "tab-content"
}

func (c *Controller) index(id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1
	}
	for i, pane := range c.panes {
		if pane.ID == id {
			return i
		}
	}
	return -1
}

func label(loc Localizer, lang string, pane Pane) string {
	if loc == nil {
		return pane.ID
	}
	return loc.Lookup(pane.LabelKey, lang)
}
