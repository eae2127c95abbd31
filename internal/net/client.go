package net

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Client connects to a game server and provides a terminal REPL.
type Client struct {
	conn net.Conn
	in   *bufio.Reader
	out  io.Writer
}

// NewClient wraps a connection, reading choices from in and rendering to out.
func NewClient(conn net.Conn, in io.Reader, out io.Writer) *Client {
	return &Client{conn: conn, in: bufio.NewReader(in), out: out}
}

// Connect connects to a server, sends the join message, and runs the REPL
// on the terminal.
func Connect(ctx context.Context, addr string, join ClientMessage) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close()

	c := NewClient(conn, os.Stdin, os.Stdout)
	if err := c.Join(join); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Connected! Jacking in...")
	return c.RunREPL(ctx)
}

// Join sends the handshake.
func (c *Client) Join(join ClientMessage) error {
	join.Type = MsgJoin
	if err := json.NewEncoder(c.conn).Encode(join); err != nil {
		return fmt.Errorf("send join: %w", err)
	}
	return nil
}

// RunREPL reads server messages and handles them interactively until the
// run is over.
func (c *Client) RunREPL(ctx context.Context) error {
	dec := json.NewDecoder(c.conn)
	enc := json.NewEncoder(c.conn)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var msg ServerMessage
		if err := dec.Decode(&msg); err != nil {
			return fmt.Errorf("read message: %w", err)
		}

		switch msg.Type {
		case MsgNotify:
			c.renderEvent(msg.Event)

		case MsgEncounter:
			c.renderEncounter(msg.Encounter)

		case MsgChooseAction:
			c.renderState(msg.State)
			c.renderActions(msg.Actions)
			n, err := c.readChoice(1, len(msg.Actions))
			if err != nil {
				return err
			}
			if err := enc.Encode(ClientMessage{Type: MsgAction, Index: n - 1}); err != nil {
				return fmt.Errorf("send action: %w", err)
			}

		case MsgChooseReward:
			c.renderRewards(msg.Rewards)
			n, err := c.readChoice(0, len(msg.Rewards))
			if err != nil {
				return err
			}
			if err := enc.Encode(ClientMessage{Type: MsgReward, Index: n - 1}); err != nil {
				return fmt.Errorf("send reward: %w", err)
			}

		case MsgCombatOver:
			c.renderOutcome(msg.Outcome)

		case MsgRunOver:
			fmt.Fprintln(c.out)
			fmt.Fprintln(c.out, "═══════════════════════════════════")
			fmt.Fprintln(c.out, "          RUN OVER")
			fmt.Fprintln(c.out, "═══════════════════════════════════")
			fmt.Fprintf(c.out, "Run %s: %s\n", msg.RunID, msg.Result)
			fmt.Fprintln(c.out, "═══════════════════════════════════")
			return nil

		case MsgError:
			return fmt.Errorf("server: %s", msg.Message)
		}
	}
}

func (c *Client) renderEvent(ev *EventView) {
	if ev == nil {
		return
	}
	// Format like the TextLogger
	phase := ev.Phase
	if phase == "" {
		phase = "          "
	}
	for len(phase) < 12 {
		phase += " "
	}
	fmt.Fprintf(c.out, "T%-2d %s| %s\n", ev.Turn, phase, ev.Details)
}

func (c *Client) renderEncounter(ev *EncounterView) {
	if ev == nil {
		return
	}
	title := ev.Name
	if ev.Boss {
		title += " [BOSS]"
	}
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, ">>> Stage %d/%d: %s\n", ev.Stage, ev.Stages, title)
	fmt.Fprintf(c.out, ">>> Hostiles: %s\n", strings.Join(ev.Enemies, ", "))
}

func (c *Client) renderState(sv *StateView) {
	if sv == nil {
		return
	}

	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "╔══════════════════════════════════════════════════════╗")
	fmt.Fprintf(c.out, "║  %s (%d/%d)  Turn %d | %s\n", sv.Encounter, sv.Stage, sv.Stages, sv.Turn, sv.Phase)

	for _, e := range sv.Enemies {
		if e.Defeated {
			fmt.Fprintf(c.out, "║  #%d %s  [DEFEATED]\n", e.Index+1, e.Name)
			continue
		}
		fmt.Fprintf(c.out, "║  #%d %s  HP %d/%d  DEF %d%s  Intent: %s\n",
			e.Index+1, e.Name, e.Health, e.MaxHealth, e.Defense, formatStatuses(e.Statuses), e.Intent)
	}

	fmt.Fprintln(c.out, "║──────────────────────────────────────────────────────")

	p := sv.Player
	fmt.Fprintf(c.out, "║  %s  HP %d/%d  DEF %d  AP %d/%d%s\n",
		p.Name, p.Health, p.MaxHealth, p.Defense, p.ActionPoints, p.MaxActionPoints, formatStatuses(p.Statuses))
	if len(p.Artifacts) > 0 {
		fmt.Fprintf(c.out, "║  Artifacts: %s\n", strings.Join(p.Artifacts, ", "))
	}
	fmt.Fprintf(c.out, "║  Draw %d  Discard %d  Exhaust %d  Credits %d\n",
		sv.Piles.Draw, sv.Piles.Discard, sv.Piles.Exhaust, p.Credits)
	fmt.Fprintln(c.out, "╚══════════════════════════════════════════════════════╝")

	if len(sv.Hand) > 0 {
		fmt.Fprintf(c.out, "\nHand: ")
		for _, card := range sv.Hand {
			fmt.Fprintf(c.out, "[%d] %s (%d)%s  ", card.Index+1, card.Name, card.Cost, formatCardFlags(card.Locked, card.Encrypted, card.Temporary))
		}
		fmt.Fprintln(c.out)
	}
}

func formatStatuses(statuses map[string]int) string {
	if len(statuses) == 0 {
		return ""
	}
	keys := make([]string, 0, len(statuses))
	for k := range statuses {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %d", k, statuses[k]))
	}
	return "  [" + strings.Join(parts, ", ") + "]"
}

func formatCardFlags(locked, encrypted int, temporary bool) string {
	var flags []string
	if locked > 0 {
		flags = append(flags, fmt.Sprintf("LOCKED %d", locked))
	}
	if encrypted > 0 {
		flags = append(flags, fmt.Sprintf("ENCRYPTED %d", encrypted))
	}
	if temporary {
		flags = append(flags, "TEMP")
	}
	if len(flags) == 0 {
		return ""
	}
	return "{" + strings.Join(flags, ",") + "}"
}

func (c *Client) renderActions(actions []ActionView) {
	fmt.Fprintln(c.out, "\nActions:")
	for _, a := range actions {
		fmt.Fprintf(c.out, "  %d) %s\n", a.Index+1, a.Desc)
	}
}

func (c *Client) renderRewards(rewards []CardView) {
	fmt.Fprintln(c.out, "\nChoose a reward:")
	fmt.Fprintln(c.out, "  0) Skip")
	for _, r := range rewards {
		fmt.Fprintf(c.out, "  %d) %s [%d] %s - %s\n", r.Index+1, r.Name, r.Cost, r.Rarity, r.Description)
	}
}

func (c *Client) renderOutcome(out *OutcomeView) {
	if out == nil {
		return
	}
	fmt.Fprintln(c.out)
	fmt.Fprintf(c.out, "*** %s in %d turns  HP %d/%d  +%d credits\n",
		strings.ToUpper(out.Result), out.Turns, out.Health, out.Max, out.Credits)
	if out.Reward != "" {
		fmt.Fprintf(c.out, "*** Added %s to the deck\n", out.Reward)
	}
	if out.Artifact != "" {
		fmt.Fprintf(c.out, "*** Acquired artifact %s\n", out.Artifact)
	}
	for _, name := range out.Upgraded {
		fmt.Fprintf(c.out, "*** Upgraded %s\n", name)
	}
}

// readChoice reads a number in [min, max], re-prompting on bad input.
func (c *Client) readChoice(min, max int) (int, error) {
	for {
		fmt.Fprint(c.out, "> ")
		line, err := c.in.ReadString('\n')
		line = strings.TrimSpace(line)
		if line == "" && err != nil {
			if errors.Is(err, io.EOF) {
				return 0, fmt.Errorf("input closed")
			}
			return 0, fmt.Errorf("read input: %w", err)
		}
		n, convErr := strconv.Atoi(line)
		if convErr != nil || n < min || n > max {
			fmt.Fprintf(c.out, "Enter a number between %d and %d\n", min, max)
			continue
		}
		return n, nil
	}
}
