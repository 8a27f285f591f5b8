// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The review TUI lists active low-confidence linkages and lets an operator
// settle each one: approving promotes the linkage to a full-confidence manual
// claim through the arbitrator, discarding tombstones the row.
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Keyboard navigation uses vim-style bindings (j/k, y/s, r, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rowanvale/tracklink/internal/linker"
	"github.com/rowanvale/tracklink/internal/models"
	"github.com/rowanvale/tracklink/internal/repositories"
)

const defaultReviewPageSize = 50

// Model represents the review TUI application state.
type Model struct {
	ctx        context.Context
	links      *repositories.LinkageRepository
	arbitrator *linker.Arbitrator
	cutoff     float64

	width       int
	height      int
	linkageList list.Model
	ready       bool
	status      string
	err         error
	help        help.Model
	keys        keyMap
}

type linkagesFetchedMsg struct {
	details []repositories.LinkageDetail
	err     error
}

type actionDoneMsg struct {
	status string
	err    error
}

// NewModel creates a new review TUI model with the provided dependencies.
//
// cutoff is the confidence below which active linkages appear for review.
func NewModel(ctx context.Context, links *repositories.LinkageRepository, arbitrator *linker.Arbitrator, cutoff float64) *Model {
	return &Model{
		ctx:        ctx,
		links:      links,
		arbitrator: arbitrator,
		cutoff:     cutoff,
		help:       help.New(),
		keys:       newKeyMap(),
	}
}

// Init initializes the TUI by fetching the review queue.
func (m *Model) Init() tea.Cmd {
	return m.fetchLinkages()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.ready {
			m.linkageList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case linkagesFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		items := make([]list.Item, len(msg.details))
		for i, detail := range msg.details {
			items[i] = linkageItem{detail: detail}
		}
		m.linkageList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.linkageList.Title = fmt.Sprintf("Linkages below %.0f%% confidence", m.cutoff*100)
		m.linkageList.SetSize(m.width-4, m.height-8)
		m.ready = true
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.status = styles.err.Render(fmt.Sprintf("Error: %v", msg.err))
			return m, nil
		}
		m.status = styles.ok.Render(msg.status)
		return m, m.fetchLinkages()
	}

	if m.ready {
		var cmd tea.Cmd
		m.linkageList, cmd = m.linkageList.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the review queue with contextual help.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}
	if !m.ready {
		return styles.help.Render("Loading review queue...")
	}

	helpKeys := []key.Binding{m.keys.approve, m.keys.discard, m.keys.refresh, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	view := fmt.Sprintf("%s\n\n%s", m.linkageList.View(), helpView)
	if m.status != "" {
		view = fmt.Sprintf("%s\n%s", view, m.status)
	}
	return view
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		return m, m.fetchLinkages()
	case "y":
		if item, ok := m.selectedItem(); ok {
			return m, m.approve(item.detail)
		}
	case "s":
		if item, ok := m.selectedItem(); ok {
			return m, m.discard(item.detail)
		}
	}

	if m.ready {
		var cmd tea.Cmd
		m.linkageList, cmd = m.linkageList.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) selectedItem() (linkageItem, bool) {
	if !m.ready {
		return linkageItem{}, false
	}
	selected := m.linkageList.SelectedItem()
	if selected == nil {
		return linkageItem{}, false
	}
	item, ok := selected.(linkageItem)
	return item, ok
}

func (m *Model) fetchLinkages() tea.Cmd {
	return func() tea.Msg {
		details, err := m.links.ListActiveBelowConfidence(m.ctx, m.cutoff, defaultReviewPageSize)
		return linkagesFetchedMsg{details: details, err: err}
	}
}

// approve re-asserts the selected tuple as a manual, full-confidence claim.
// Arbitration replaces the reviewed row in place since manual outranks every
// automated source.
func (m *Model) approve(detail repositories.LinkageDetail) tea.Cmd {
	return func() tea.Msg {
		_, err := m.arbitrator.CreateLinkage(m.ctx, detail.Linkage.Tuple(), 1, models.SourceManual)
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("Approved linkage #%d", detail.Linkage.ID)}
	}
}

// discard tombstones the selected row through the arbitrator, which owns the
// linkage write path.
func (m *Model) discard(detail repositories.LinkageDetail) tea.Cmd {
	return func() tea.Msg {
		if err := m.arbitrator.Discard(m.ctx, detail.Linkage.ID); err != nil {
			return actionDoneMsg{err: err}
		}
		return actionDoneMsg{status: fmt.Sprintf("Discarded linkage #%d", detail.Linkage.ID)}
	}
}
