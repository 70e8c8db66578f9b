package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/Mohsinsiddi/cappu/internal/state"
)

// FailureMessage is shown when the session could not be loaded.
const FailureMessage = "Failed to load web3, accounts, or contract. Check the log for details."

const sectionWidth = 50

// SaleController is the part of the sale controller the screen drives.
type SaleController interface {
	Initialize(ctx context.Context) (state.Session, state.Snapshot, error)
	Run(ctx context.Context) error
	SubmitWhitelist(ctx context.Context, addr string) error
	SubmitPurchase(ctx context.Context) (*types.Transaction, error)
	SubmitBurn(ctx context.Context) (*types.Transaction, error)
}

type focusArea int

const (
	focusInput focusArea = iota
	focusActions
)

// runEndedMsg reports that the event consumer stopped.
type runEndedMsg struct{ err error }

// SaleModel is the Bubble Tea model for the token sale screen.
type SaleModel struct {
	ctx  context.Context
	ctrl SaleController

	view     state.View
	input    textinput.Model
	spin     spinner.Model
	focus    focusArea
	lastTx   common.Hash
	runErr   error
	Quitting bool
}

// NewSaleModel creates the screen in its loading state.
func NewSaleModel(ctx context.Context, ctrl SaleController) SaleModel {
	ti := textinput.New()
	ti.Prompt = "› "
	ti.CharLimit = 66
	ti.Width = 44
	ti.SetValue(state.DefaultKycAddress)
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = StyleChain

	return SaleModel{
		ctx:   ctx,
		ctrl:  ctrl,
		view:  state.New(),
		input: ti,
		spin:  sp,
	}
}

// State returns the current view record.
func (m SaleModel) State() state.View { return m.view }

func (m SaleModel) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.initialize())
}

func (m SaleModel) initialize() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		session, snap, err := ctrl.Initialize(ctx)
		if err != nil {
			return state.LoadFailed{Err: err}
		}
		return state.Loaded{Session: session, Snapshot: snap}
	}
}

func (m SaleModel) run() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return runEndedMsg{err: ctrl.Run(ctx)}
	}
}

func (m SaleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if m.view.Loaded || m.view.IsFailed() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case state.Loaded:
		wasLoaded := m.view.Loaded
		m.view = state.Apply(m.view, msg)
		if !wasLoaded && m.view.Loaded {
			return m, m.run()
		}

	case state.TxSubmitted:
		m.view = state.Apply(m.view, msg)
		if msg.Hash != (common.Hash{}) {
			m.lastTx = msg.Hash
		}

	case state.Event:
		m.view = state.Apply(m.view, msg)

	case runEndedMsg:
		m.runErr = msg.err
	}

	return m, nil
}

func (m SaleModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.Quitting = true
		return m, tea.Quit
	}

	if !m.view.Loaded {
		switch msg.String() {
		case "q", "esc":
			m.Quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	m.view = state.Apply(m.view, state.Dismissed{})

	if m.focus == focusInput {
		switch msg.String() {
		case "tab", "esc":
			m.focus = focusActions
			m.input.Blur()
			return m, nil
		case "enter":
			return m.submit(state.ActionWhitelist)
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if v := m.input.Value(); v != m.view.PendingKycAddress {
			m.view = state.Apply(m.view, state.KycAddressChanged{Value: v})
		}
		return m, cmd
	}

	switch msg.String() {
	case "q", "esc":
		m.Quitting = true
		return m, tea.Quit
	case "tab":
		m.focus = focusInput
		return m, m.input.Focus()
	case "b":
		return m.submit(state.ActionPurchase)
	case "c":
		return m.submit(state.ActionBurn)
	}
	return m, nil
}

// submit starts action unless it is already in flight.
func (m SaleModel) submit(action state.Action) (tea.Model, tea.Cmd) {
	if m.view.IsPending(action) {
		return m, nil
	}
	m.view = state.Apply(m.view, state.TxStarted{Action: action})

	ctx, ctrl := m.ctx, m.ctrl
	switch action {
	case state.ActionWhitelist:
		addr := m.view.PendingKycAddress
		return m, func() tea.Msg {
			if err := ctrl.SubmitWhitelist(ctx, addr); err != nil {
				return state.TxFailed{Action: action, Err: err}
			}
			return state.TxSubmitted{Action: action}
		}
	case state.ActionPurchase:
		return m, sendCmd(action, func() (*types.Transaction, error) { return ctrl.SubmitPurchase(ctx) })
	case state.ActionBurn:
		return m, sendCmd(action, func() (*types.Transaction, error) { return ctrl.SubmitBurn(ctx) })
	}
	return m, nil
}

func sendCmd(action state.Action, send func() (*types.Transaction, error)) tea.Cmd {
	return func() tea.Msg {
		tx, err := send()
		if err != nil {
			return state.TxFailed{Action: action, Err: err}
		}
		return state.TxSubmitted{Action: action, Hash: tx.Hash()}
	}
}

func (m SaleModel) View() string {
	if m.Quitting {
		return ""
	}
	switch {
	case m.view.IsFailed():
		return m.failedView()
	case !m.view.Loaded:
		return m.loadingView()
	}
	return m.readyView()
}

func (m SaleModel) loadingView() string {
	return "\n  " + m.spin.View() + " Loading Web3, accounts, and contract...\n\n" +
		"  " + Meta("q quit") + "\n"
}

func (m SaleModel) failedView() string {
	var sb strings.Builder
	sb.WriteString("\n  " + Err(FailureMessage) + "\n")
	sb.WriteString("  " + Meta(shortErr(m.view.Failed.Error())) + "\n\n")
	sb.WriteString("  " + Meta("q quit") + "\n")
	return sb.String()
}

func (m SaleModel) readyView() string {
	v := m.view
	var sb strings.Builder

	sb.WriteString(StyleTitle.Render("☕ StarDucks Cappucino Token Sale") + "\n")
	sb.WriteString(Meta("Get your tokens today!") + "\n\n")

	kyc := m.section("Kyc whitelisting", m.focus == focusInput,
		"Address to allow:",
		m.input.View(),
		KeyHint("enter", "Add to whitelist")+m.pendingMark(state.ActionWhitelist),
	)
	credit := m.section("Add credit", false,
		"If you want to buy tokens, send Wei to this address:",
		Addr(v.Session.SaleAddress.Hex()),
	)
	tokens := m.section("The tokens", m.focus == focusActions,
		"You currently have: "+Val(v.Snapshot.UserTokens.String())+" CAPPU Tokens",
		KeyHint("b", "Buy more tokens")+m.pendingMark(state.ActionPurchase),
		Meta("*Total supply: "+v.Snapshot.TotalSupply.String()+" tokens"),
	)
	coffee := m.section("Exchange for coffee", m.focus == focusActions,
		KeyHint("c", "Get coffee")+m.pendingMark(state.ActionBurn),
		Meta("*(burn a token!)"),
	)

	sb.WriteString(Info("Get started") + "\n")
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, kyc, " ", credit) + "\n")
	sb.WriteString(Info("Drink some coffee") + "\n")
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tokens, " ", coffee) + "\n\n")

	sb.WriteString(Meta("account ") + Addr(TruncateAddr(v.Session.Account.Hex())) +
		Meta("  ·  network ") + ChainName(v.Session.NetworkID) + "\n")
	if m.lastTx != (common.Hash{}) {
		sb.WriteString(Meta("last tx ") + Addr(m.lastTx.Hex()) + "\n")
	}

	switch {
	case v.Ack != "":
		sb.WriteString(Success(v.Ack) + "\n")
	case v.TxError != "":
		sb.WriteString(Err(shortErr(v.TxError)) + "\n")
	}
	if m.runErr != nil {
		sb.WriteString(Warn("live updates stopped: "+shortErr(m.runErr.Error())) + "\n")
	}

	sb.WriteString("\n" + m.help() + "\n")
	return sb.String()
}

func (m SaleModel) section(title string, focused bool, lines ...string) string {
	style := StyleBorder
	if focused {
		style = StyleFocused
	}
	body := StyleHeader.Render(title) + "\n" + strings.Join(lines, "\n")
	return style.Width(sectionWidth).Render(body)
}

func (m SaleModel) pendingMark(a state.Action) string {
	if m.view.IsPending(a) {
		return "  " + StyleWarning.Render("pending…")
	}
	return ""
}

func (m SaleModel) help() string {
	if m.focus == focusInput {
		return Meta("enter whitelist  ·  tab actions  ·  ctrl+c quit")
	}
	return Meta("b buy  ·  c get coffee  ·  tab edit address  ·  q quit")
}
