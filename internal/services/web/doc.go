// Package web serves the bakery search page.
//
// The browser keeps the DOM; each browser session keeps a result pager and a
// tab controller here. htmx requests are answered with out-of-band fragments
// that replace or extend the result grid, the counter and the load-more slot.
package web
