// Package tui drives console screens from a terminal: it prints the page grid
// with lipgloss tables, asks for row actions and field values through a
// PromptDriver (survey by default) and reports screen notices inline.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/goliatone/go-formgrid/pkg/console"
	"github.com/goliatone/go-formgrid/pkg/form"
	"github.com/goliatone/go-formgrid/pkg/schema"
)

const (
	actionNext    = "Next page"
	actionPrev    = "Previous page"
	actionAdd     = "Add"
	actionEdit    = "Edit"
	actionView    = "View"
	actionDelete  = "Delete"
	actionRefresh = "Refresh"
	actionBack    = "Back"
	actionQuit    = "Quit"
	actionRecent  = "Recent activity"
	choiceCancel  = "Cancel"
	choiceNone    = "(none)"
)

// Console is the terminal surface.
type Console struct {
	driver      PromptDriver
	out         io.Writer
	theme       Theme
	logger      *slog.Logger
	columnWidth int
	feed        *console.Feed
}

// New constructs a console with defaults (survey driver, stdout).
func New(options ...Option) *Console {
	c := &Console{
		out:         os.Stdout,
		theme:       DefaultTheme(),
		logger:      slog.Default(),
		columnWidth: 32,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.driver == nil {
		c.driver = newSurveyDriver(c.out)
	}
	return c
}

// Run shows the dashboard and lets the user pick a screen until they quit.
// A single screen without an activity feed is opened directly.
func (c *Console) Run(ctx context.Context, screens ...*console.Screen) error {
	switch {
	case len(screens) == 0:
		return ErrNoScreens
	case len(screens) == 1 && c.feed == nil:
		return c.RunScreen(ctx, screens[0])
	}

	titles := make([]string, 0, len(screens)+2)
	for _, scr := range screens {
		titles = append(titles, scr.Title())
	}
	if c.feed != nil {
		titles = append(titles, actionRecent)
	}
	titles = append(titles, actionQuit)

	for {
		c.print(RenderDashboard(console.Dashboard(ctx, screens...)))
		for _, scr := range screens {
			c.flush(ctx, scr)
		}
		idx, err := c.driver.Select(ctx, SelectConfig{Message: "Open", Options: titles})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(titles) || titles[idx] == actionQuit {
			return nil
		}
		if titles[idx] == actionRecent {
			if err := c.showActivity(ctx, screens); err != nil {
				return err
			}
			continue
		}
		if err := c.RunScreen(ctx, screens[idx]); err != nil {
			return err
		}
	}
}

// showActivity lists the feed and prints the detail of the picked entry.
func (c *Console) showActivity(ctx context.Context, screens []*console.Screen) error {
	items, err := c.feed.Recent(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "activity feed failed", "error", err)
		return c.driver.Info(ctx, c.theme.WarnPrefix+err.Error())
	}
	if len(items) == 0 {
		return c.driver.Info(ctx, c.theme.InfoPrefix+"No recent activity")
	}
	labels := make([]string, 0, len(items)+1)
	for _, a := range items {
		author := a.Author
		if author == "" {
			author = "Someone"
		}
		labels = append(labels, fmt.Sprintf("%s %s: %s", a.At, author, a.Summary(60)))
	}
	labels = append(labels, choiceCancel)

	idx, err := c.driver.Select(ctx, SelectConfig{Message: "Open which entry?", Options: labels})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(items) {
		return nil
	}
	model, err := console.OpenActivity(ctx, items[idx], screens...)
	if err != nil {
		if errors.Is(err, console.ErrNoScreenForActivity) {
			return c.driver.Info(ctx, c.theme.WarnPrefix+err.Error())
		}
	} else {
		c.print(RenderDetail(model))
	}
	for _, scr := range screens {
		if scr.Entity() == items[idx].Entity {
			scr.CloseView()
			c.flush(ctx, scr)
		}
	}
	return nil
}

// RunScreen mounts scr and loops over row actions until the user goes back.
func (c *Console) RunScreen(ctx context.Context, scr *console.Screen) error {
	scr.Mount(ctx)
	for {
		page := scr.List().Current()
		c.print(scr.Title())
		c.print(RenderGrid(page, scr.Schema(), c.columnWidth))
		c.flush(ctx, scr)

		actions := c.actions(scr)
		idx, err := c.driver.Select(ctx, SelectConfig{Message: "Action", Options: actions})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(actions) {
			continue
		}

		switch actions[idx] {
		case actionNext:
			scr.PageChange(ctx, page.Index+1)
		case actionPrev:
			scr.PageChange(ctx, page.Index-1)
		case actionRefresh:
			scr.Refresh(ctx)
		case actionAdd:
			if _, err := scr.Add(ctx); err == nil {
				err = c.fillForm(ctx, scr)
				if err != nil {
					return err
				}
			}
		case actionEdit:
			row, ok, err := c.pickRow(ctx, scr, "Edit which row?")
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if _, err := scr.Edit(ctx, row); err == nil {
				if err := c.fillForm(ctx, scr); err != nil {
					return err
				}
			}
		case actionView:
			row, ok, err := c.pickRow(ctx, scr, "View which row?")
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			if model, err := scr.View(ctx, row); err == nil {
				c.print(RenderDetail(model))
				scr.CloseView()
			}
		case actionDelete:
			row, ok, err := c.pickRow(ctx, scr, "Delete which row?")
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			confirmed, err := c.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Delete %s?", rowLabel(scr.Schema(), row))})
			if err != nil {
				return err
			}
			if confirmed {
				_ = scr.Delete(ctx, row.ID)
			}
		case actionBack:
			c.flush(ctx, scr)
			return nil
		}
	}
}

func (c *Console) actions(scr *console.Screen) []string {
	page := scr.List().Current()
	var out []string
	if page.Index+1 < page.PageCount() {
		out = append(out, actionNext)
	}
	if page.Index > 0 {
		out = append(out, actionPrev)
	}
	out = append(out, actionAdd)
	if len(page.Rows) > 0 {
		out = append(out, actionEdit, actionView)
		if scr.AllowDelete() {
			out = append(out, actionDelete)
		}
	}
	return append(out, actionRefresh, actionBack)
}

func (c *Console) pickRow(ctx context.Context, scr *console.Screen, message string) (schema.Record, bool, error) {
	rows := scr.List().Current().Rows
	if len(rows) == 0 {
		return schema.Record{}, false, nil
	}
	options := make([]string, 0, len(rows)+1)
	for i, row := range rows {
		options = append(options, fmt.Sprintf("%d. %s", i+1, rowLabel(scr.Schema(), row)))
	}
	options = append(options, choiceCancel)
	idx, err := c.driver.Select(ctx, SelectConfig{Message: message, Options: options})
	if err != nil {
		return schema.Record{}, false, err
	}
	if idx < 0 || idx >= len(rows) {
		return schema.Record{}, false, nil
	}
	return rows[idx], true, nil
}

// fillForm prompts every input of the open form, then submits. Server
// rejections keep the draft and offer another pass.
func (c *Console) fillForm(ctx context.Context, scr *console.Screen) error {
	title := scr.Title()
	for {
		for _, field := range scr.Schema().Inputs() {
			if err := c.promptField(ctx, scr, field); err != nil {
				if errors.Is(err, ErrAborted) {
					_ = scr.Cancel()
				}
				return err
			}
		}

		save, err := c.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Save %s?", title), Default: true})
		if err != nil {
			_ = scr.Cancel()
			return err
		}
		if !save {
			_ = scr.Cancel()
			return nil
		}

		_, err = scr.Submit(ctx)
		c.flush(ctx, scr)
		if err == nil {
			return nil
		}

		var valErr *form.ValidationError
		var submitErr *form.SubmitError
		switch {
		case errors.As(err, &valErr):
			c.reportFields(ctx, scr, valErr.Result.Errors)
			continue
		case errors.As(err, &submitErr):
			fields := make(map[string]string, len(submitErr.Fields))
			for key, msgs := range submitErr.Fields {
				fields[key] = strings.Join(msgs, "; ")
			}
			c.reportFields(ctx, scr, fields)
			for _, msg := range submitErr.Form {
				_ = c.driver.Info(ctx, c.theme.ErrorPrefix+msg)
			}
			again, err := c.driver.Confirm(ctx, ConfirmConfig{Message: "Edit again?", Default: true})
			if err != nil {
				_ = scr.Cancel()
				return err
			}
			if again {
				continue
			}
			_ = scr.Cancel()
			return nil
		default:
			return nil
		}
	}
}

func (c *Console) promptField(ctx context.Context, scr *console.Screen, field schema.Field) error {
	ctrl := scr.Form()
	label := field.DisplayLabel()
	if field.Required {
		label += " *"
	}

	for {
		current := ctrl.Draft().Get(field.Key)
		var (
			value string
			err   error
		)
		set := ctrl.Options(field.Key)
		if field.IsDynamic() && len(set) > 0 {
			options := make([]string, 0, len(set)+1)
			for _, opt := range set {
				options = append(options, opt.Label)
			}
			if !field.Required {
				options = append(options, choiceNone)
			}
			defaultIdx := -1
			for i, opt := range set {
				if opt.ID == current {
					defaultIdx = i
				}
			}
			var idx int
			idx, err = c.driver.Select(ctx, SelectConfig{Message: label, Options: options, DefaultIndex: defaultIdx})
			if err == nil && idx >= 0 && idx < len(set) {
				value = set[idx].ID
			}
		} else {
			value, err = c.driver.Input(ctx, InputConfig{Message: label, Default: current, Help: fieldHelp(field)})
		}
		if err != nil {
			return err
		}

		msg, err := scr.SetField(field.Key, strings.TrimSpace(value))
		if err != nil {
			return err
		}
		if msg == "" {
			return nil
		}
		_ = c.driver.Info(ctx, fmt.Sprintf("%sInvalid %s: %s", c.theme.WarnPrefix, field.DisplayLabel(), msg))
	}
}

func (c *Console) reportFields(ctx context.Context, scr *console.Screen, fields map[string]string) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		label := key
		if f, ok := scr.Schema().Field(key); ok {
			label = f.DisplayLabel()
		}
		_ = c.driver.Info(ctx, fmt.Sprintf("%s%s: %s", c.theme.ErrorPrefix, label, fields[key]))
	}
}

func (c *Console) flush(ctx context.Context, scr *console.Screen) {
	for _, n := range scr.DrainNotices() {
		prefix := c.theme.InfoPrefix
		switch {
		case n.Level >= slog.LevelError:
			prefix = c.theme.ErrorPrefix
		case n.Level >= slog.LevelWarn:
			prefix = c.theme.WarnPrefix
		}
		_ = c.driver.Info(ctx, prefix+n.Message)
	}
}

func (c *Console) print(text string) {
	if _, err := fmt.Fprintln(c.out, text); err != nil {
		c.logger.Debug("console write failed", "error", err)
	}
}

func fieldHelp(field schema.Field) string {
	switch field.Kind {
	case schema.KindDate:
		return "Format: " + schema.DateLayout
	case schema.KindPhone:
		return "Digits only"
	case schema.KindURL:
		return "Absolute URL, e.g. https://example.com"
	case schema.KindEmail:
		return "name@example.com"
	}
	return ""
}

// rowLabel picks the first non-empty input value to name a row.
func rowLabel(s *schema.Schema, row schema.Record) string {
	for _, f := range s.Inputs() {
		if v := strings.TrimSpace(row.Values[f.Key]); v != "" {
			return v
		}
	}
	if row.ID != "" {
		return row.ID
	}
	return "(untitled)"
}
