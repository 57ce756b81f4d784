package desktop

import (
	"context"
	"errors"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"spesetracker/internal/chart"
	"spesetracker/internal/core"
	"spesetracker/internal/log"
	"spesetracker/internal/services"
)

const (
	Title = "Advanced Expenses Tracker"

	chartWidth  = 480
	chartHeight = 420
)

const warningMissingFields = "Please fill in all fields."

var columnWidths = map[string]float32{
	core.ColumnID:          50,
	core.ColumnDate:        110,
	core.ColumnDescription: 220,
	core.ColumnAmount:      90,
	core.ColumnCategory:    130,
}

// Window is the single-window desktop front end: input form, grid and, for
// the categorized variant, the category chart.
type Window struct {
	win    fyne.Window
	ledger *services.LedgerService
	logger *log.Logger
	ctx    context.Context

	date        *widget.DateEntry
	description *widget.Entry
	amount      *widget.Entry
	category    *widget.Select
	submit      *widget.Button
	table       *widget.Table
	chart       *canvas.Image

	view services.View

	warn   func(msg string)
	fail   func(err error)
	prompt func(column, current string, done func(value string, ok bool))
}

// New builds the window and loads the current ledger state into it.
func New(ctx context.Context, a fyne.App, ledger *services.LedgerService, logger *log.Logger) (*Window, error) {
	if logger == nil {
		logger = log.Default()
	}
	w := &Window{
		win:    a.NewWindow(Title),
		ledger: ledger,
		logger: logger.WithComponent(log.ComponentDesktop),
		ctx:    ctx,
	}
	w.warn = w.showWarning
	w.fail = w.showError
	w.prompt = w.showPrompt

	w.setupComponents()
	w.win.SetContent(w.setupLayout())
	w.win.Resize(windowSize(ledger.Variant()))

	view, err := ledger.View(ctx)
	if err != nil {
		return nil, err
	}
	w.apply(view)
	return w, nil
}

func windowSize(v core.Variant) fyne.Size {
	if v.HasCategory() {
		return fyne.NewSize(1000, 600)
	}
	return fyne.NewSize(800, 600)
}

func (w *Window) setupComponents() {
	w.date = widget.NewDateEntry()
	w.description = widget.NewEntry()
	w.amount = widget.NewEntry()

	if w.ledger.Variant().HasCategory() {
		w.category = widget.NewSelect(core.Categories, nil)
		w.chart = canvas.NewImageFromImage(nil)
		w.chart.FillMode = canvas.ImageFillContain
		w.chart.SetMinSize(fyne.NewSize(chartWidth, chartHeight))
	}
	w.setForm(w.ledger.NewForm())

	w.submit = widget.NewButton("Add Expense", w.Submit)
	w.submit.Importance = widget.HighImportance

	w.table = widget.NewTable(
		func() (int, int) { return len(w.view.Rows), len(w.view.Columns) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(id widget.TableCellID, o fyne.CanvasObject) {
			if id.Row < len(w.view.Rows) && id.Col < len(w.view.Columns) {
				o.(*widget.Label).SetText(w.view.Rows[id.Row].Cells[id.Col])
			}
		},
	)
	w.table.ShowHeaderRow = true
	w.table.CreateHeader = func() fyne.CanvasObject {
		l := widget.NewLabel("")
		l.TextStyle = fyne.TextStyle{Bold: true}
		return l
	}
	w.table.UpdateHeader = func(id widget.TableCellID, o fyne.CanvasObject) {
		if id.Row < 0 && id.Col >= 0 && id.Col < len(w.view.Columns) {
			o.(*widget.Label).SetText(w.view.Columns[id.Col])
		}
	}
	w.table.OnSelected = w.editCell
	for i, col := range w.ledger.Variant().Columns() {
		w.table.SetColumnWidth(i, columnWidths[col])
	}
}

func (w *Window) setupLayout() fyne.CanvasObject {
	items := []*widget.FormItem{
		widget.NewFormItem("Date", w.date),
		widget.NewFormItem("Description", w.description),
		widget.NewFormItem("Amount", w.amount),
	}
	if w.category != nil {
		items = append(items, widget.NewFormItem("Category", w.category))
	}

	left := container.NewBorder(
		container.NewVBox(widget.NewForm(items...), w.submit),
		nil, nil, nil,
		w.table,
	)
	if w.chart == nil {
		return left
	}

	split := container.NewHSplit(left, container.NewPadded(w.chart))
	split.Offset = 0.55
	return split
}

// Submit sends the form to the ledger. On success the form is reset and
// the grid and chart reloaded; on failure the form keeps its values unless
// the row was already stored.
func (w *Window) Submit() {
	f := core.Form{
		Date:        w.formDate(),
		Description: w.description.Text,
		Amount:      w.amount.Text,
	}
	if w.category != nil {
		f.Category = w.category.Selected
	}

	view, next, err := w.ledger.Submit(w.ctx, f)
	if errors.Is(err, services.ErrReload) {
		w.setForm(next)
	}
	if err != nil {
		w.report(err)
		return
	}
	w.setForm(next)
	w.apply(view)
}

// EditCell writes one cell and reloads the grid and chart.
func (w *Window) EditCell(id int64, column, value string) {
	view, err := w.ledger.EditCell(w.ctx, id, column, value)
	if err != nil {
		w.report(err)
		return
	}
	w.apply(view)
}

// editCell opens the edit prompt for a selected grid cell.
func (w *Window) editCell(id widget.TableCellID) {
	defer w.table.UnselectAll()
	if id.Row < 0 || id.Row >= len(w.view.Rows) || id.Col < 0 || id.Col >= len(w.view.Columns) {
		return
	}
	column := w.view.Columns[id.Col]
	if column == core.ColumnID {
		return
	}
	row := w.view.Rows[id.Row]
	w.prompt(column, row.Cells[id.Col], func(value string, ok bool) {
		if ok {
			w.EditCell(row.ID, column, value)
		}
	})
}

func (w *Window) apply(v services.View) {
	w.view = v
	w.table.Refresh()
	if w.chart != nil {
		w.chart.Image = chart.Image(v.Totals, chartWidth, chartHeight)
		w.chart.Refresh()
	}
}

// formDate renders the picked date in storage format, empty when unset.
func (w *Window) formDate() string {
	if w.date.Date == nil {
		return ""
	}
	return w.date.Date.Format(core.ISODate)
}

func (w *Window) setForm(f core.Form) {
	if d, err := time.Parse(core.ISODate, f.Date); err == nil {
		w.date.SetDate(&d)
	} else {
		w.date.SetDate(nil)
	}
	w.description.SetText(f.Description)
	w.amount.SetText(f.Amount)
	if w.category != nil {
		w.category.SetSelected(f.Category)
	}
}

func (w *Window) report(err error) {
	switch {
	case errors.Is(err, core.ErrMissingFields):
		w.warn(warningMissingFields)
	case errors.Is(err, core.ErrUnknownCategory):
		w.warn("Unknown category.")
	case errors.Is(err, core.ErrInvalidAmount):
		w.warn("Invalid amount.")
	default:
		w.logger.ErrorContext(w.ctx, "Ledger operation failed", log.FieldError, err)
		w.fail(err)
	}
}

func (w *Window) showWarning(msg string) {
	dialog.ShowInformation("Error", msg, w.win)
}

func (w *Window) showError(err error) {
	dialog.ShowError(err, w.win)
}

// showPrompt asks for a replacement value, pre-filled with the current one.
// Category cells get the closed set instead of free text.
func (w *Window) showPrompt(column, current string, done func(string, bool)) {
	var input fyne.CanvasObject
	var value func() string
	if column == core.ColumnCategory {
		sel := widget.NewSelect(core.Categories, nil)
		sel.SetSelected(current)
		input, value = sel, func() string { return sel.Selected }
	} else {
		e := widget.NewEntry()
		e.SetText(current)
		input, value = e, func() string { return e.Text }
	}
	dialog.ShowForm("Edit Expense", "OK", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("Enter new value for "+column, input)},
		func(ok bool) { done(value(), ok) },
		w.win)
}

// SetOnClosed registers fn to run once the window is closed.
func (w *Window) SetOnClosed(fn func()) {
	w.win.SetOnClosed(fn)
}

// ShowAndRun shows the window and blocks in the event loop.
func (w *Window) ShowAndRun() {
	w.win.ShowAndRun()
}

func (w *Window) Window() fyne.Window {
	return w.win
}
