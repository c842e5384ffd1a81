package html

import (
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-formgrid/pkg/console"
	"github.com/goliatone/go-formgrid/pkg/detail"
	"github.com/goliatone/go-formgrid/pkg/form"
	"github.com/goliatone/go-formgrid/pkg/schema"
)

// NoticeView is a rendered notice. Level is one of info, warn or error.
type NoticeView struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// ColumnView is one grid header.
type ColumnView struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// RowView is one grid row.
type RowView struct {
	ID    string   `json:"id"`
	Cells []string `json:"cells"`
}

// PageView carries the paging controls. Numbers are one-based for display;
// Prev and Next are zero-based page indexes for links.
type PageView struct {
	Number  string `json:"number"`
	Count   string `json:"count"`
	Total   string `json:"total"`
	Prev    string `json:"prev"`
	Next    string `json:"next"`
	HasPrev bool   `json:"hasPrev"`
	HasNext bool   `json:"hasNext"`
}

// OptionView is one select option.
type OptionView struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
}

// FieldView is one form input.
type FieldView struct {
	Key      string       `json:"key"`
	Label    string       `json:"label"`
	Widget   string       `json:"widget"`
	Value    string       `json:"value"`
	Required bool         `json:"required"`
	Messages []string     `json:"messages"`
	Options  []OptionView `json:"options"`
}

// FormView is the open form session.
type FormView struct {
	Session    string      `json:"session"`
	Mode       string      `json:"mode"`
	Submitting bool        `json:"submitting"`
	Fields     []FieldView `json:"fields"`
}

// ScreenView is everything the screen template needs.
type ScreenView struct {
	Title       string               `json:"title"`
	Entity      string               `json:"entity"`
	Base        string               `json:"base"`
	Columns     []ColumnView         `json:"columns"`
	Rows        []RowView            `json:"rows"`
	Page        PageView             `json:"page"`
	AllowDelete bool                 `json:"allowDelete"`
	Form        *FormView            `json:"form,omitempty"`
	Detail      *detail.DisplayModel `json:"detail,omitempty"`
	Notices     []NoticeView         `json:"notices"`
	Home        string               `json:"home"`
	Nav         []TileView           `json:"nav"`
}

// TileView is one dashboard tile.
type TileView struct {
	Entity string `json:"entity"`
	Title  string `json:"title"`
	Count  string `json:"count"`
	Error  string `json:"error"`
	Href   string `json:"href"`
}

// ActivityView is one recent-activity entry. Href opens the referenced
// record's detail view.
type ActivityView struct {
	Author  string `json:"author"`
	Summary string `json:"summary"`
	Text    string `json:"text"`
	At      string `json:"at"`
	Entity  string `json:"entity"`
	Record  string `json:"record"`
	Href    string `json:"href"`
}

// DashboardView is the landing page.
type DashboardView struct {
	Title    string         `json:"title"`
	Tiles    []TileView     `json:"tiles"`
	Activity []ActivityView `json:"activity"`
	Notices  []NoticeView   `json:"notices"`
}

// BuildScreenView snapshots scr for rendering. base is the URL prefix of the
// screen's routes.
func BuildScreenView(scr *console.Screen, base string, notices []console.Notice) ScreenView {
	s := scr.Schema()
	page := scr.List().Current()
	inputs := s.Inputs()

	view := ScreenView{
		Title:       scr.Title(),
		Entity:      scr.Entity(),
		Base:        strings.TrimRight(base, "/"),
		Columns:     make([]ColumnView, 0, len(inputs)),
		Rows:        make([]RowView, 0, len(page.Rows)),
		Page:        buildPage(page.Index, page.PageCount(), page.TotalCount),
		AllowDelete: scr.AllowDelete(),
		Notices:     Notices(notices),
	}
	for _, f := range inputs {
		view.Columns = append(view.Columns, ColumnView{Key: f.Key, Label: f.DisplayLabel()})
	}
	for _, row := range page.Rows {
		cells := make([]string, 0, len(inputs))
		for _, f := range inputs {
			cells = append(cells, row.Values[f.Key])
		}
		view.Rows = append(view.Rows, RowView{ID: row.ID, Cells: cells})
	}

	if fv, ok := buildForm(scr.Form(), s); ok {
		view.Form = &fv
	}
	if model, ok := scr.Viewing(); ok {
		view.Detail = &model
	}
	return view
}

// BuildDashboardView converts dashboard totals into tiles linking to base.
func BuildDashboardView(title, base string, totals []console.Total, notices []console.Notice) DashboardView {
	view := DashboardView{
		Title:   title,
		Tiles:   Tiles(base, totals),
		Notices: Notices(notices),
	}
	return view
}

// Tiles converts totals into tiles linking to base/{entity}.
func Tiles(base string, totals []console.Total) []TileView {
	prefix := strings.TrimRight(base, "/")
	out := make([]TileView, 0, len(totals))
	for _, t := range totals {
		tile := TileView{
			Entity: t.Entity,
			Title:  t.Title,
			Count:  strconv.Itoa(t.Count),
			Href:   prefix + "/" + t.Entity,
		}
		if t.Err != nil {
			tile.Count = ""
			tile.Error = t.Err.Error()
		}
		out = append(out, tile)
	}
	return out
}

// Activities converts feed entries into links to base/{entity}/rows/{record}.
func Activities(base string, items []console.Activity) []ActivityView {
	prefix := strings.TrimRight(base, "/")
	out := make([]ActivityView, 0, len(items))
	for _, a := range items {
		out = append(out, ActivityView{
			Author:  a.Author,
			Summary: a.Summary(80),
			Text:    a.Text,
			At:      a.At,
			Entity:  a.Entity,
			Record:  a.Record,
			Href:    prefix + "/" + a.Entity + "/rows/" + url.PathEscape(a.Record),
		})
	}
	return out
}

// Notices converts console notices for display.
func Notices(in []console.Notice) []NoticeView {
	out := make([]NoticeView, 0, len(in))
	for _, n := range in {
		level := "info"
		switch {
		case n.Level >= slog.LevelError:
			level = "error"
		case n.Level >= slog.LevelWarn:
			level = "warn"
		}
		out = append(out, NoticeView{Level: level, Message: n.Message})
	}
	return out
}

func buildPage(index, count, total int) PageView {
	pv := PageView{
		Number:  strconv.Itoa(index + 1),
		Count:   strconv.Itoa(max(count, 1)),
		Total:   strconv.Itoa(total),
		HasPrev: index > 0,
		HasNext: index+1 < count,
	}
	if pv.HasPrev {
		pv.Prev = strconv.Itoa(index - 1)
	}
	if pv.HasNext {
		pv.Next = strconv.Itoa(index + 1)
	}
	return pv
}

func buildForm(fc *form.Controller, s *schema.Schema) (FormView, bool) {
	state := fc.State()
	if state == form.StateClosed {
		return FormView{}, false
	}
	draft := fc.Draft()
	result := fc.Errors()
	server := fc.ServerErrors()

	fv := FormView{
		Session:    fc.SessionID(),
		Mode:       string(fc.Mode()),
		Submitting: state == form.StateSubmitting,
	}
	for _, f := range s.Inputs() {
		field := FieldView{
			Key:      f.Key,
			Label:    f.DisplayLabel(),
			Widget:   "text",
			Value:    draft.Get(f.Key),
			Required: f.Required,
		}
		if spec, ok := s.Spec(f.Key); ok && spec.Widget != "" {
			field.Widget = spec.Widget
		}
		if msg := result.Message(f.Key); msg != "" {
			field.Messages = append(field.Messages, msg)
		}
		field.Messages = append(field.Messages, server[f.Key]...)
		if f.IsDynamic() {
			for _, o := range fc.Options(f.Key) {
				field.Options = append(field.Options, OptionView{
					ID:       o.ID,
					Label:    o.Label,
					Selected: o.ID == field.Value,
				})
			}
		}
		fv.Fields = append(fv.Fields, field)
	}
	return fv, true
}
