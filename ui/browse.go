package ui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"product-console/catalog"
	"product-console/models"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
)

// MsgLoggedOut is shown instead of the list when there is no session
const MsgLoggedOut = "Please log in to see the products"

type focusArea int

const (
	focusTable focusArea = iota
	focusSearch
	focusPrice
)

// Sessions reports whether a session is present
type Sessions interface {
	LoggedIn(ctx context.Context) bool
}

// SessionChangedMsg tells the page that the stored session may have changed
type SessionChangedMsg struct{}

// HostChangedMsg tells the page that requests now go to another backend
type HostChangedMsg struct {
	Host string
}

type loadedMsg struct{ err error }

type createdMsg struct {
	product models.Product
	err     error
}

type updatedMsg struct {
	product models.Product
	err     error
}

type deletedMsg struct {
	id  string
	err error
}

type loggedOutMsg struct{ err error }

// Model is the browse page. It renders the visible products of a
// catalog.ListModel and runs every request as a tea.Cmd.
type Model struct {
	ctx      context.Context
	list     *catalog.ListModel
	sessions Sessions
	logger   *zap.Logger

	width  int
	height int
	table  table.Model
	rows   []models.Product

	search   textinput.Model
	price    textinput.Model
	focus    focusArea
	rating   int
	featured bool

	form     *productForm
	loggedIn bool
	pending  int
	notice   string

	styles Styles
}

// Option configures a Model
type Option func(*Model)

// WithSessions makes the page show the logged-out view when there is no session
func WithSessions(s Sessions) Option {
	return func(m *Model) { m.sessions = s }
}

// WithLogger sets the logger; the default discards everything
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// New creates the page for list. Requests use ctx.
func New(ctx context.Context, list *catalog.ListModel, opts ...Option) Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 12},
			{Title: "Name", Width: 24},
			{Title: "Price", Width: 10},
			{Title: "Company", Width: 18},
			{Title: "Rating", Width: 8},
			{Title: "Featured", Width: 9},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
	)

	search := textinput.New()
	search.Placeholder = "Search by name..."
	search.CharLimit = 50
	search.Width = 30
	search.Cursor.SetMode(cursor.CursorStatic)

	price := textinput.New()
	price.Placeholder = "Max price"
	price.CharLimit = 12
	price.Width = 10
	price.Cursor.SetMode(cursor.CursorStatic)

	m := Model{
		ctx:      ctx,
		list:     list,
		logger:   zap.NewNop(),
		table:    t,
		search:   search,
		price:    price,
		loggedIn: true,
		styles:   DefaultStyles(),
	}
	for _, opt := range opts {
		opt(&m)
	}
	m.loggedIn = m.checkSession()
	m.refreshRows()
	return m
}

func (m Model) checkSession() bool {
	if m.sessions == nil {
		return true
	}
	return m.sessions.LoggedIn(m.ctx)
}

// Init loads the products when logged in
func (m Model) Init() tea.Cmd {
	if !m.loggedIn {
		return nil
	}
	return m.loadCmd()
}

func (m *Model) loadCmd() tea.Cmd {
	m.pending++
	list, ctx := m.list, m.ctx
	return func() tea.Msg {
		return loadedMsg{err: list.Load(ctx)}
	}
}

func (m *Model) createCmd(in models.ProductInput) tea.Cmd {
	m.pending++
	list, ctx := m.list, m.ctx
	return func() tea.Msg {
		p, err := list.Create(ctx, in)
		return createdMsg{product: p, err: err}
	}
}

func (m *Model) updateCmd(id string, u models.ProductUpdate) tea.Cmd {
	m.pending++
	list, ctx := m.list, m.ctx
	return func() tea.Msg {
		p, err := list.Update(ctx, id, u)
		return updatedMsg{product: p, err: err}
	}
}

func (m *Model) deleteCmd(id string) tea.Cmd {
	m.pending++
	list, ctx := m.list, m.ctx
	return func() tea.Msg {
		return deletedMsg{id: id, err: list.Delete(ctx, id)}
	}
}

func (m *Model) logoutCmd() tea.Cmd {
	m.pending++
	list, ctx := m.list, m.ctx
	return func() tea.Msg {
		return loggedOutMsg{err: list.Logout(ctx)}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case loadedMsg:
		m.pending--
		if errors.Is(msg.err, catalog.ErrLoggedOut) {
			m.loggedIn = false
		}
		m.notice = ""
		m.refreshRows()
		return m, nil

	case createdMsg:
		m.pending--
		if msg.err != nil {
			if m.form != nil {
				m.form.loading = false
				m.form.err = catalog.MsgCreateFailed
			}
			return m, nil
		}
		m.logger.Debug("Product added from browser", zap.String("product_id", msg.product.ID))
		m.form = nil
		m.notice = "Product added"
		m.refreshRows()
		return m, nil

	case updatedMsg:
		m.pending--
		if msg.err != nil {
			// stay in edit mode so the change can be retried
			if m.form != nil {
				m.form.loading = false
				m.form.err = catalog.MsgUpdateFailed
			}
			return m, nil
		}
		m.form = nil
		m.notice = "Product updated"
		m.refreshRows()
		return m, nil

	case deletedMsg:
		m.pending--
		if msg.err == nil {
			m.notice = "Product deleted"
		}
		m.refreshRows()
		return m, nil

	case loggedOutMsg:
		m.pending--
		if msg.err != nil {
			m.logger.Error("Logout failed", zap.Error(msg.err))
			m.notice = "Error logging out"
			return m, nil
		}
		m.loggedIn = false
		m.form = nil
		m.notice = ""
		return m, nil

	case SessionChangedMsg:
		was := m.loggedIn
		m.loggedIn = m.checkSession()
		if m.loggedIn && !was {
			cmd := m.loadCmd()
			return m, cmd
		}
		return m, nil

	case HostChangedMsg:
		m.notice = "Backend: " + msg.Host
		if m.loggedIn {
			cmd := m.loadCmd()
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m.quit()
	}

	if m.form != nil {
		return m.handleFormKey(msg)
	}

	if m.focus != focusTable {
		return m.handleFilterKey(msg)
	}

	if !m.loggedIn {
		switch msg.String() {
		case "q":
			return m.quit()
		case "r":
			m.loggedIn = m.checkSession()
			if m.loggedIn {
				cmd := m.loadCmd()
				return m, cmd
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "q":
		return m.quit()
	case "/":
		m.focusInput(focusSearch)
		return m, nil
	case "p":
		m.focusInput(focusPrice)
		return m, nil
	case "[":
		if m.rating > 0 {
			m.rating--
		}
		return m.applyCriteria()
	case "]":
		if m.rating < catalog.MaxRating {
			m.rating++
		}
		return m.applyCriteria()
	case "f":
		m.featured = !m.featured
		return m.applyCriteria()
	case "r":
		cmd := m.loadCmd()
		return m, cmd
	case "a":
		m.form = newAddForm()
		return m, nil
	case "e":
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		editing, err := m.list.BeginEdit(p.ID)
		if err != nil {
			return m, nil
		}
		m.form = newEditForm(editing)
		return m, nil
	case "d":
		p, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.logger.Debug("Deleting product from browser", zap.String("product_id", p.ID))
		cmd := m.deleteCmd(p.ID)
		return m, cmd
	case "L":
		cmd := m.logoutCmd()
		return m, cmd
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", "tab":
		m.focusInput(focusTable)
		return m, nil
	}

	var cmd tea.Cmd
	if m.focus == focusSearch {
		m.search, cmd = m.search.Update(msg)
	} else {
		m.price, cmd = m.price.Update(msg)
	}
	// live filtering on each keystroke
	next, reload := m.applyCriteria()
	return next, tea.Batch(cmd, reload)
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	action, cmd := m.form.update(msg)
	switch action {
	case formCancel:
		if m.form.kind == formEdit {
			m.list.CancelEdit()
		}
		m.form = nil
		return m, nil
	case formSubmit:
		return m.submitForm()
	}
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	switch m.form.kind {
	case formAdd:
		add := m.form.addForm()
		in, err := add.Validate()
		if err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		m.form.err = ""
		m.form.loading = true
		cmd := m.createCmd(in)
		return m, cmd
	default:
		payload, err := m.form.updateForm().Payload()
		if err != nil {
			m.form.err = err.Error()
			return m, nil
		}
		m.form.err = ""
		m.form.loading = true
		cmd := m.updateCmd(m.form.seed.ID, payload)
		return m, cmd
	}
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.list.Close()
	return m, tea.Quit
}

func (m *Model) focusInput(area focusArea) {
	m.focus = area
	m.search.Blur()
	m.price.Blur()
	switch area {
	case focusSearch:
		m.search.Focus()
		m.table.Blur()
	case focusPrice:
		m.price.Focus()
		m.table.Blur()
	default:
		m.table.Focus()
	}
}

func (m Model) criteria() catalog.Criteria {
	return catalog.Criteria{
		SearchText:   m.search.Value(),
		MaxPrice:     m.price.Value(),
		MinRating:    m.rating,
		FeaturedOnly: m.featured,
	}
}

// applyCriteria pushes the filter inputs to the list and reloads when the
// server-side listing depends on them
func (m Model) applyCriteria() (tea.Model, tea.Cmd) {
	reload := m.list.SetCriteria(m.criteria())
	m.refreshRows()
	if reload && m.loggedIn {
		cmd := m.loadCmd()
		return m, cmd
	}
	return m, nil
}

func (m *Model) refreshRows() {
	m.rows = m.list.Visible()
	rows := make([]table.Row, 0, len(m.rows))
	for _, p := range m.rows {
		featured := ""
		if p.Featured {
			featured = "yes"
		}
		rows = append(rows, table.Row{
			p.ID,
			p.DisplayName(),
			strconv.FormatFloat(p.Price, 'f', 2, 64),
			p.Company,
			stars(p.Rating),
			featured,
		})
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m Model) selected() (models.Product, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return models.Product{}, false
	}
	return m.rows[i], true
}

func stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > catalog.MaxRating {
		rating = catalog.MaxRating
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", catalog.MaxRating-rating)
}

// SetSize updates the size.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	if w > 4 {
		m.table.SetWidth(w - 4)
	}
	if h > 14 {
		m.table.SetHeight(h - 14)
	}
}

// View renders the page.
func (m Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.styles.Header.Render(" Products ") + "\n\n")

	if !m.loggedIn {
		sb.WriteString(m.styles.Info.Render(MsgLoggedOut) + "\n\n")
		sb.WriteString(m.styles.Muted.Render("Run `product-console login`, then press [r]. [q] Quit"))
		return sb.String()
	}

	if m.form != nil {
		sb.WriteString(m.form.view(m.styles))
		return sb.String()
	}

	sb.WriteString(m.renderFilterBar())
	sb.WriteString("\n\n")
	sb.WriteString(m.styles.Content.Render(m.table.View()))

	total := len(m.list.Products())
	sb.WriteString("\n")
	sb.WriteString(m.styles.Muted.Render(fmt.Sprintf("Showing %d of %d products", len(m.rows), total)))
	if m.pending > 0 {
		sb.WriteString(m.styles.Muted.Render("  Loading..."))
	}
	sb.WriteString("\n")

	if status := m.list.Status(); status != "" {
		sb.WriteString(m.styles.Error.Render(status) + "\n")
	} else if m.notice != "" {
		sb.WriteString(m.styles.Success.Render(m.notice) + "\n")
	}

	sb.WriteString(m.styles.Muted.Render("[/] Search  [p] Price  [ [ ] ] Rating  [f] Featured  [r] Reload  [a] Add  [e] Edit  [d] Delete  [L] Logout  [q] Quit"))
	return sb.String()
}

func (m Model) renderFilterBar() string {
	searchStyle, priceStyle := m.styles.Input, m.styles.Input
	switch m.focus {
	case focusSearch:
		searchStyle = m.styles.Focused
	case focusPrice:
		priceStyle = m.styles.Focused
	}

	box := "[ ]"
	if m.featured {
		box = "[x]"
	}

	return strings.Join([]string{
		searchStyle.Render(m.search.View()),
		priceStyle.Render(m.price.View()),
		"Min rating " + m.styles.Rating.Render(stars(m.rating)),
		box + " Featured only",
	}, "  ")
}
