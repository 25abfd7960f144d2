package render

import "github.com/a-h/templ"

// TriggerState is the state of the load-more control.
type TriggerState int

const (
	// TriggerHidden removes the control.
	TriggerHidden TriggerState = iota
	// TriggerReady shows an enabled control.
	TriggerReady
	// TriggerBusy shows a disabled control while the next page loads.
	TriggerBusy
)

// LoadMore renders the contents of the load-more slot for state.
func (r *Renderer) LoadMore(lang string, state TriggerState) templ.Component {
	switch state {
	case TriggerReady:
		return loadMoreButton(r.moreURL, r.T(lang, "dbpedia.load_more"), r.T(lang, "dbpedia.loading_more"))
	case TriggerBusy:
		return loadMoreBusy(r.T(lang, "dbpedia.loading_more"))
	default:
		return templ.NopComponent
	}
}
