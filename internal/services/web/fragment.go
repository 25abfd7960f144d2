package web

import (
	"context"
	"io"
	"net/http"

	"github.com/a-h/templ"
	"github.com/louisbranch/bakery.search/internal/search/render"
	"github.com/louisbranch/bakery.search/internal/services/shared/htmx"
)

// fragmentView records pager output and renders it as out-of-band swaps.
//
// Later replacements of a region win over earlier ones; appended cards
// accumulate after the last replacement.
type fragmentView struct {
	replaced   bool
	results    []templ.Component
	appended   []templ.Component
	count      *string
	trigger    templ.Component
	hasTrigger bool
	extra      []templ.Component
}

func (v *fragmentView) ReplaceResults(components ...templ.Component) {
	v.replaced = true
	v.results = append([]templ.Component(nil), components...)
	v.appended = nil
}

func (v *fragmentView) AppendResults(cards ...templ.Component) {
	v.appended = append(v.appended, cards...)
}

func (v *fragmentView) SetCount(label string) {
	v.count = &label
}

func (v *fragmentView) SetTrigger(trigger templ.Component) {
	v.trigger = trigger
	v.hasTrigger = true
}

// add queues an extra out-of-band fragment.
func (v *fragmentView) add(component templ.Component) {
	v.extra = append(v.extra, component)
}

func (v *fragmentView) empty() bool {
	return !v.replaced && len(v.appended) == 0 && v.count == nil && !v.hasTrigger && len(v.extra) == 0
}

// Component renders every recorded change as out-of-band swaps.
func (v *fragmentView) Component() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var parts []templ.Component
		switch {
		case v.replaced:
			// Cards appended after a replacement belong inside the same swap.
			parts = append(parts, htmx.OOB(render.ResultsGridID, htmx.SwapInner, group(append(append([]templ.Component(nil), v.results...), v.appended...))))
		case len(v.appended) > 0:
			parts = append(parts, htmx.OOB(render.ResultsGridID, htmx.SwapBeforeEnd, group(v.appended)))
		}
		if v.count != nil {
			parts = append(parts, htmx.OOB(render.CountID, htmx.SwapInner, htmx.Text(*v.count)))
		}
		if v.hasTrigger {
			parts = append(parts, htmx.OOB(render.MoreID, htmx.SwapInner, v.trigger))
		}
		parts = append(parts, v.extra...)
		return group(parts).Render(ctx, w)
	})
}

// inline renders the recorded results region content for embedding in a page.
func (v *fragmentView) inline() templ.Component {
	return group(append(append([]templ.Component(nil), v.results...), v.appended...))
}

func (v *fragmentView) countLabel() string {
	if v.count == nil {
		return ""
	}
	return *v.count
}

func (v *fragmentView) triggerComponent() templ.Component {
	if v.trigger == nil {
		return templ.NopComponent
	}
	return v.trigger
}

// write sends the recorded swaps, or 204 when nothing changed.
func (v *fragmentView) write(w http.ResponseWriter, r *http.Request) {
	if v.empty() {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := v.Component().Render(r.Context(), w); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// group renders components one after another.
func group(components []templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, c := range components {
			if c == nil {
				continue
			}
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}
