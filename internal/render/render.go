// Package render formats chains, transcripts and view banners for the
// terminal.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/harunnryd/solace/internal/chain"
	"github.com/harunnryd/solace/internal/reconciler"
	"github.com/harunnryd/solace/internal/store"

	"charm.land/lipgloss/v2"
	"charm.land/lipgloss/v2/table"
)

const (
	clockLayout  = "15:04"
	windowLayout = "02 Jan 2006 15:04"
)

type Renderer struct {
	loc *time.Location

	headerStyle    lipgloss.Style
	oddRowStyle    lipgloss.Style
	evenRowStyle   lipgloss.Style
	borderStyle    lipgloss.Style
	userStyle      lipgloss.Style
	assistantStyle lipgloss.Style
	timeStyle      lipgloss.Style
	bannerStyle    lipgloss.Style
	warnStyle      lipgloss.Style
	errorStyle     lipgloss.Style
}

// New renders times in loc.
func New(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	purple := lipgloss.Color("99")
	gray := lipgloss.Color("245")
	lightGray := lipgloss.Color("241")

	return &Renderer{
		loc: loc,
		headerStyle: lipgloss.NewStyle().
			Foreground(purple).
			Bold(true).
			Align(lipgloss.Center).
			Padding(0, 1),
		oddRowStyle:    lipgloss.NewStyle().Foreground(gray).Padding(0, 1),
		evenRowStyle:   lipgloss.NewStyle().Foreground(lightGray).Padding(0, 1),
		borderStyle:    lipgloss.NewStyle().Foreground(purple),
		userStyle:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		assistantStyle: lipgloss.NewStyle().Foreground(purple).Bold(true),
		timeStyle:      lipgloss.NewStyle().Foreground(gray),
		bannerStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(purple).
			Padding(0, 1),
		warnStyle:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		errorStyle: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
}

func (r *Renderer) Chains(chains []chain.Chain) string {
	if len(chains) == 0 {
		return "No chains found"
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(r.borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return r.headerStyle
			case row%2 == 0:
				return r.evenRowStyle
			default:
				return r.oddRowStyle
			}
		}).
		Headers("Chain", "Status", "Sessions", "Created", "Context")

	for _, c := range chains {
		t.Row(
			c.ID,
			string(c.Status),
			fmt.Sprintf("%d", len(c.SessionIDs)),
			r.formatTime(c.CreatedAt, windowLayout),
			truncateString(c.Context, 40),
		)
	}
	return t.String()
}

func (r *Renderer) Message(m chain.Message) string {
	who := r.userStyle.Render("you")
	if m.Role == chain.RoleAssistant {
		who = r.assistantStyle.Render("assistant")
	}
	stamp := r.timeStyle.Render("[" + r.formatTime(m.CreatedAt, clockLayout) + "]")
	return fmt.Sprintf("%s %s: %s", stamp, who, m.Content)
}

func (r *Renderer) Transcript(messages []chain.Message) string {
	if len(messages) == 0 {
		return "No messages yet"
	}
	lines := make([]string, 0, len(messages))
	for _, m := range messages {
		lines = append(lines, r.Message(m))
	}
	return strings.Join(lines, "\n")
}

// Banner describes why a view is or is not writable.
func (r *Renderer) Banner(view *reconciler.View) string {
	switch {
	case view == nil:
		return ""
	case view.Active != nil && !view.ReadOnly:
		return r.bannerStyle.Render(fmt.Sprintf("Session active (chat %s). Type a message, /end to finish.", view.ActiveChatID))
	case view.Pending != nil && view.Window != nil:
		return r.bannerStyle.Render(r.windowText(view.Window, view.Availability))
	default:
		return r.bannerStyle.Render("No active or scheduled sessions. This chat is read-only.")
	}
}

func (r *Renderer) windowText(w *chain.Window, availability chain.Availability) string {
	span := fmt.Sprintf("Session starts at %s and ends at %s (%s).",
		w.Start.Format(windowLayout), w.End.Format(windowLayout), w.Start.Format("UTC-07:00"))
	switch availability {
	case chain.AvailabilityNotYet:
		return span + "\nYou cannot start this session yet."
	case chain.AvailabilityExpired:
		return span + "\nThe start window for this session has expired."
	default:
		return span + "\nType /start to begin."
	}
}

func (r *Renderer) Identity(identity store.Identity, authenticated bool) string {
	if !authenticated || identity.IsZero() {
		return "Not signed in"
	}
	role := identity.Role
	if role == "" {
		role = "employee"
	}
	return fmt.Sprintf("Signed in as %s (%s)", identity.EmployeeID, role)
}

// Notice styles a transient message by level: "warn", "error" or anything
// else for plain.
func (r *Renderer) Notice(level, message string) string {
	switch level {
	case "error":
		return r.errorStyle.Render("! " + message)
	case "warn":
		return r.warnStyle.Render(message)
	default:
		return message
	}
}

func (r *Renderer) formatTime(t time.Time, layout string) string {
	if t.IsZero() {
		return "--"
	}
	return t.In(r.loc).Format(layout)
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
