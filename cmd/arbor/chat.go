package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/go-go-golems/arbor/pkg/events"
	"github.com/go-go-golems/arbor/pkg/store"
	"github.com/go-go-golems/arbor/pkg/tree"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Interactive branching chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context())
		},
	}
}

func runChat(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt)
	defer stop()

	pubsub := gochannel.NewGoChannel(gochannel.Config{}, events.NewWatermillLogger(log.Logger))
	bus := newEventBus()
	bus.SubscribePublisher(events.DefaultTopic, pubsub)

	st, err := openStore(ctx,
		store.WithCompleter(newCompleter()),
		store.WithPublisher(bus),
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("closing store")
		}
	}()

	st.EnsureSession()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return watchEvents(egCtx, pubsub)
	})
	eg.Go(func() error {
		defer stop()
		return chatLoop(egCtx, st)
	})
	if err := eg.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

// watchEvents prints turn failures as they happen, so a branch erroring
// out in the background is visible even while the prompt is open.
func watchEvents(ctx context.Context, pubsub *gochannel.GoChannel) error {
	messages, err := pubsub.Subscribe(ctx, events.DefaultTopic)
	if err != nil {
		return err
	}
	for msg := range messages {
		var event events.Event
		if err := json.Unmarshal(msg.Payload, &event); err == nil {
			if event.Type == events.EventTypeTurnFailed {
				fmt.Printf("! turn on %s failed: %s\n", event.NodeID, event.Error)
			}
		}
		msg.Ack()
	}
	return nil
}

func chatLoop(ctx context.Context, st *store.Store) error {
	fmt.Println("arbor: type a prompt, or /help for commands")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}
		if strings.HasPrefix(line, "/") {
			if err := runCommand(ctx, st, line); err != nil {
				fmt.Println("error:", err)
			}
			continue
		}

		current := st.CurrentNodeID()
		if _, err := st.SendUserMessage(current, line); err != nil {
			fmt.Println("error:", err)
			continue
		}
		if err := st.RequestTurn(ctx, current, line, store.TurnKindLinear); err != nil {
			fmt.Println("error:", err)
			continue
		}
		printLastReply(st, current)
	}
}

func runCommand(ctx context.Context, st *store.Store, line string) error {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/help":
		fmt.Println(`/tree                                 show the branch columns
/branch <msg> <start> <end> <prompt>  branch from a span of message <msg> of the current node
/switch <node-id>                     make the path through <node-id> active
/focus <node-id>                      move within the active path
/sessions                             list sessions
/new                                  start a new session
/delete <session-id>                  delete a session
/dismiss                              dismiss a failed turn on the current node
/quit                                 exit`)
		return nil
	case "/tree":
		printTree(st)
		return nil
	case "/sessions":
		printSessions(st)
		return nil
	case "/new":
		id := st.CreateSession()
		fmt.Println("created", id)
		return nil
	case "/delete":
		if len(fields) != 2 {
			return fmt.Errorf("usage: /delete <session-id>")
		}
		st.DeleteSession(tree.SessionID(fields[1]))
		st.EnsureSession()
		return nil
	case "/switch":
		if len(fields) != 2 {
			return fmt.Errorf("usage: /switch <node-id>")
		}
		st.SwitchBranchToNode(tree.NodeID(fields[1]))
		return nil
	case "/focus":
		if len(fields) != 2 {
			return fmt.Errorf("usage: /focus <node-id>")
		}
		st.FocusNode(tree.NodeID(fields[1]))
		return nil
	case "/dismiss":
		st.DismissTurnError(st.CurrentNodeID())
		return nil
	case "/branch":
		return runBranch(ctx, st, fields[1:])
	default:
		return fmt.Errorf("unknown command %s", fields[0])
	}
}

func runBranch(ctx context.Context, st *store.Store, args []string) error {
	if len(args) < 4 {
		return fmt.Errorf("usage: /branch <msg-index> <start> <end> <prompt...>")
	}
	msgIndex, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("bad message index %q", args[0])
	}
	start, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("bad start offset %q", args[1])
	}
	end, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("bad end offset %q", args[2])
	}
	prompt := strings.Join(args[3:], " ")

	view := st.View()
	if view.Session == nil {
		return fmt.Errorf("no active session")
	}
	node, ok := view.Session.Node(view.CurrentNodeID)
	if !ok {
		return fmt.Errorf("current node not found")
	}
	if msgIndex < 0 || msgIndex >= len(node.Messages) {
		return fmt.Errorf("message index %d out of range", msgIndex)
	}
	message := node.Messages[msgIndex]
	if start < 0 || end > len(message.Text) || end <= start {
		return fmt.Errorf("selection [%d, %d) out of range for %d bytes", start, end, len(message.Text))
	}

	result, err := st.StartBranchFromSelection(store.BranchInput{
		ParentNodeID:    node.ID,
		ParentMessageID: message.ID,
		Selection: tree.Selection{
			Text:        message.Text[start:end],
			StartOffset: start,
			EndOffset:   end,
		},
		Prompt: prompt,
	})
	if err != nil {
		return err
	}
	fmt.Println("branched into", result.NodeID)

	if err := st.RequestTurn(ctx, result.NodeID, prompt, store.TurnKindBranch); err != nil {
		return err
	}
	printLastReply(st, result.NodeID)
	return nil
}

func printLastReply(st *store.Store, nodeID tree.NodeID) {
	view := st.View()
	if view.Session == nil {
		return
	}
	node, ok := view.Session.Node(nodeID)
	if !ok {
		return
	}
	last := node.LastMessage()
	if last == nil || last.Role != tree.RoleAssistant {
		return
	}
	if node.Header != "" {
		fmt.Printf("[%s]\n", node.Header)
	}
	fmt.Println(last.Text)
}

func printTree(st *store.Store) {
	view := st.View()
	if view.Session == nil {
		fmt.Println("no active session")
		return
	}
	onPath := map[tree.NodeID]bool{}
	for _, id := range view.ActivePath {
		onPath[id] = true
	}
	for _, column := range view.Columns {
		fmt.Printf("depth %d:\n", column.Depth)
		for _, node := range column.Nodes {
			marker := " "
			if onPath[node.ID] {
				marker = "*"
			}
			if node.ID == view.CurrentNodeID {
				marker = ">"
			}
			header := node.Header
			if header == "" {
				header = "(untitled)"
			}
			status := ""
			if pt, ok := view.Pending[node.ID]; ok {
				if pt.Failed() {
					status = " [error: " + pt.Err + "]"
				} else {
					status = " [thinking]"
				}
			}
			fmt.Printf("  %s %s  %s  (%d messages)%s\n", marker, node.ID, header, len(node.Messages), status)
		}
	}
}

func printSessions(st *store.Store) {
	for _, info := range st.Sessions() {
		marker := " "
		if info.Active {
			marker = "*"
		}
		title := info.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s %s  %s  (updated %s)\n", marker, info.ID, title, info.UpdatedAt.Format("2006-01-02 15:04"))
	}
}
