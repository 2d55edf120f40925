package chat

import (
	"fmt"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/parcelops/hub/internal/engine"
	"github.com/parcelops/hub/internal/localdb"
	"github.com/parcelops/hub/internal/mention"
	"github.com/parcelops/hub/internal/types"
)

// Options configure the chat surface.
type Options struct {
	Store      *engine.Store
	Syncer     *engine.Syncer
	Optimistic *engine.Optimistic
	Directory  *engine.Directory
	Scheduler  *engine.Scheduler
	Cache      *localdb.DB
	UserID     string
	Workspace  string
}

// Run starts the chat UI.
func Run(opts Options) error {
	model := NewModel(opts)
	fmt.Printf("\033]0;hubchat · %s\007", opts.Workspace)

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus())
	_, err := program.Run()
	return err
}

type focusArea int

const (
	focusComposer focusArea = iota
	focusSidebar
)

// Model implements the chat UI and owns the engine wiring.
type Model struct {
	store      *engine.Store
	syncer     *engine.Syncer
	optimistic *engine.Optimistic
	directory  *engine.Directory
	scheduler  *engine.Scheduler
	cache      *localdb.DB
	userID     string

	viewport viewport.Model
	input    textarea.Model
	width    int
	height   int
	ready    bool

	focus         focusArea
	channelIndex  int
	channelFilter string
	filterActive  bool

	suggestions     []types.MentionCandidate
	suggestionIndex int
	suggestionCtx   *mention.Context
	chosen          []types.MentionCandidate

	status string
	locked bool
}

// NewModel builds the chat model.
func NewModel(opts Options) *Model {
	input := textarea.New()
	input.Placeholder = "Message (@ to mention, / for commands)"
	input.SetHeight(2)
	input.CharLimit = 4000
	input.ShowLineNumbers = false
	input.Focus()

	return &Model{
		store:           opts.Store,
		syncer:          opts.Syncer,
		optimistic:      opts.Optimistic,
		directory:       opts.Directory,
		scheduler:       opts.Scheduler,
		cache:           opts.Cache,
		userID:          opts.UserID,
		input:           input,
		suggestionIndex: -1,
	}
}

// Init loads the channel list and directory, then starts the tick loop.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.bootstrapCmd(), m.tickCmd())
}

func (m *Model) activeChannel() (types.Channel, bool) {
	id := m.store.ActiveID()
	if id == "" {
		return types.Channel{}, false
	}
	return m.store.Channel(id)
}
