package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shophub/supportflow/internal/agent"
	"github.com/shophub/supportflow/internal/llm"
	"github.com/shophub/supportflow/internal/memory"
)

var (
	chatThreadID string
	chatUserID   string
	chatPlain    bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask the support agent a question from the terminal",
	Long: `Runs one support turn against the local knowledge base and store
database, streaming progress to stderr and the answer to stdout.
Passing --thread continues an existing conversation.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return fmt.Errorf("question must not be empty")
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		ctx := cmd.Context()
		ag, _, memStore, err := buildAgent(ctx, cfg, database)
		if err != nil {
			return err
		}

		threadID := chatThreadID
		if threadID == "" {
			threadID = memory.NewThreadID()
		}
		if _, err := memStore.GetOrCreateThread(ctx, threadID, chatUserID, ""); err != nil {
			return fmt.Errorf("preparing thread: %w", err)
		}
		history, err := loadHistory(ctx, memStore, threadID, cfg.Memory.HistoryLimit)
		if err != nil {
			return err
		}
		if err := memStore.AddMessage(ctx, threadID, memory.RoleUser, question, nil, nil); err != nil {
			return fmt.Errorf("recording question: %w", err)
		}

		req := agent.Request{
			Question: question,
			ThreadID: threadID,
			UserID:   chatUserID,
			History:  history,
		}
		if chatPlain {
			return runChatPlain(ctx, ag, memStore, req)
		}
		return runChatStreaming(ctx, ag, memStore, req)
	},
}

func runChatStreaming(ctx context.Context, ag *agent.Agent, memStore *memory.Store, req agent.Request) error {
	for ev := range ag.Run(ctx, req) {
		switch ev.Type {
		case agent.EventStatus, agent.EventSentimentDetected:
			fmt.Fprintln(os.Stderr, ev.Message)
		case agent.EventToolStart:
			fmt.Fprintln(os.Stderr, ev.Message)
		case agent.EventAnswerChunk:
			fmt.Print(ev.Content)
		case agent.EventComplete:
			fmt.Println()
			fmt.Fprintf(os.Stderr, "\nthread: %s\n", req.ThreadID)
			persistCLIAnswer(ctx, memStore, req.ThreadID, ev)
		case agent.EventError:
			return fmt.Errorf("%s", ev.Message)
		}
	}
	return nil
}

func runChatPlain(ctx context.Context, ag *agent.Agent, memStore *memory.Store, req agent.Request) error {
	result, err := ag.Answer(ctx, req)
	if err != nil {
		return err
	}
	fmt.Println(result.Answer)
	fmt.Fprintf(os.Stderr, "\nthread: %s\n", req.ThreadID)
	persistCLIAnswer(ctx, memStore, req.ThreadID, agent.Event{
		Answer:    result.Answer,
		Sources:   result.Sources,
		ToolsUsed: result.ToolsUsed,
	})
	return nil
}

func loadHistory(ctx context.Context, memStore *memory.Store, threadID string, limit int) ([]llm.Message, error) {
	entries, err := memStore.GetHistory(ctx, threadID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	history := make([]llm.Message, len(entries))
	for i, e := range entries {
		history[i] = llm.Message{Role: llm.Role(e.Role), Content: e.Content}
	}
	return history, nil
}

func persistCLIAnswer(ctx context.Context, memStore *memory.Store, threadID string, ev agent.Event) {
	var tools []memory.ToolInvocation
	for _, t := range ev.ToolsUsed {
		tools = append(tools, memory.ToolInvocation{Tool: t.Tool, Args: t.Args, Result: t.Result})
	}
	var sources []memory.SourceRef
	for _, s := range ev.Sources {
		sources = append(sources, memory.SourceRef{Content: s.Content, Relevance: s.Relevance})
	}
	if err := memStore.AddMessage(ctx, threadID, memory.RoleAssistant, ev.Answer, tools, sources); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to record answer: %v\n", err)
	}
}

func init() {
	chatCmd.Flags().StringVar(&chatThreadID, "thread", "", "continue an existing conversation thread")
	chatCmd.Flags().StringVar(&chatUserID, "user", "", "customer ID to act on behalf of")
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "print the full answer at once instead of streaming")
	rootCmd.AddCommand(chatCmd)
}
