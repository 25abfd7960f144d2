package render

import (
	"strings"

	"github.com/a-h/templ"
	"github.com/louisbranch/bakery.search/internal/search/result"
)

// MaxIngredients caps the ingredient list shown on a card.
const MaxIngredients = 8

// CardView is the view-model of one result card.
type CardView struct {
	Title      string
	Badge      string
	BadgeClass string
	CardClass  string

	Thumbnail    templ.SafeURL
	ThumbnailAlt string
	NoThumbnail  string

	TypesTitle string
	Types      []string

	DescriptionTitle string
	Description      string

	IngredientsTitle string
	Ingredients      []string
	MoreIngredients  string

	Lists []ListView

	InfoTitle  string
	Attributes []AttributeView
}

// ListView is a titled bullet list section.
type ListView struct {
	Title string
	Items []string
}

// AttributeView is one row of the attribute grid.
type AttributeView struct {
	Key    string
	Values string
	Link   templ.SafeURL
	IsLink bool
}

// CardView builds the view-model for item.
func (r *Renderer) CardView(item result.Item, source result.Source, lang string) CardView {
	view := CardView{
		Title:        plain(item.Name),
		Badge:        r.T(lang, "card.badge."+string(source)),
		BadgeClass:   "source-badge source-" + string(source),
		CardClass:    "card " + string(source) + "-result",
		ThumbnailAlt: plain(item.Name),
		NoThumbnail:  r.T(lang, "card.no_thumbnail"),
	}
	if view.Title == "" {
		view.Title = r.T(lang, "card.no_name")
	}
	if view.ThumbnailAlt == "" {
		view.ThumbnailAlt = r.T(lang, "card.image_alt")
	}
	if item.ThumbnailURL != "" {
		view.Thumbnail = templ.URL(item.ThumbnailURL)
	}

	if types := plainAll(item.Types); len(types) > 0 {
		view.TypesTitle = r.T(lang, "card.types")
		view.Types = types
	}
	if description := plain(item.Description); description != "" {
		view.DescriptionTitle = r.T(lang, "card.description")
		view.Description = description
	}

	if ingredients := plainAll(item.Ingredients); len(ingredients) > 0 {
		view.IngredientsTitle = r.T(lang, "card.ingredients")
		if remaining := len(ingredients) - MaxIngredients; remaining > 0 {
			view.Ingredients = ingredients[:MaxIngredients]
			view.MoreIngredients = r.Tf(lang, "card.more_ingredients", remaining)
		} else {
			view.Ingredients = ingredients
		}
	}

	for _, section := range []struct {
		key    string
		values []string
	}{
		{key: "card.tools", values: item.Tools},
		{key: "card.techniques", values: item.Techniques},
		{key: "card.categories", values: item.Categories},
	} {
		if values := plainAll(section.values); len(values) > 0 {
			view.Lists = append(view.Lists, ListView{Title: r.T(lang, section.key), Items: values})
		}
	}

	for _, attr := range item.Attributes {
		values := plainAll(attr.Values)
		if len(values) == 0 {
			continue
		}
		if attr.IsLink() {
			view.Attributes = append(view.Attributes, AttributeView{
				Key:    r.T(lang, "card.view_dbpedia"),
				Values: values[0],
				Link:   templ.URL(values[0]),
				IsLink: true,
			})
			continue
		}
		view.Attributes = append(view.Attributes, AttributeView{
			Key:    plain(attr.Key),
			Values: strings.Join(values, ", "),
		})
	}
	if len(view.Attributes) > 0 {
		view.InfoTitle = r.T(lang, "card.info")
	}
	return view
}

// Card renders one result card.
func (r *Renderer) Card(item result.Item, source result.Source, lang string) templ.Component {
	return CardComponent(r.CardView(item, source, lang))
}

// Cards renders items in order.
func (r *Renderer) Cards(items []result.Item, source result.Source, lang string) []templ.Component {
	out := make([]templ.Component, 0, len(items))
	for _, item := range items {
		out = append(out, r.Card(item, source, lang))
	}
	return out
}

// CardComponent renders a CardView.
func CardComponent(view CardView) templ.Component {
	return cardComponent(view)
}

func plainAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if cleaned := plain(value); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}
