package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bmadforge/runtime/internal/client"
	"github.com/bmadforge/runtime/internal/config"
	"github.com/bmadforge/runtime/internal/event"
	"github.com/bmadforge/runtime/internal/session"
)

var (
	runAgent     string
	runCostLimit float64
	runDir       string
)

var runCmd = &cobra.Command{
	Use:   "run [command...]",
	Short: "Run a single agent command to completion",
	Long: `Run starts an agent on a command and runs it to completion, printing
the final response and any produced documents.

If the agent asks a question via ask_user, run prompts for an answer on
stdin and resumes the session.

Examples:
  bmadrun run --agent dev "implement the login form"
  bmadrun run --agent pm --cost-limit 2.50 "draft the PRD for checkout"`,
	RunE: runOnce,
}

func init() {
	runCmd.Flags().StringVar(&runAgent, "agent", "", "Agent ID to run (required)")
	runCmd.Flags().Float64Var(&runCostLimit, "cost-limit", 0, "Override the configured cost limit in USD")
	runCmd.Flags().StringVar(&runDir, "directory", "", "Working directory")
	runCmd.MarkFlagRequired("agent")
}

func runOnce(cmd *cobra.Command, args []string) error {
	dir, err := GetWorkDir(runDir)
	if err != nil {
		return err
	}

	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return err
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if runCostLimit > 0 {
		cfg.CostLimit = runCostLimit
	}

	command := strings.Join(args, " ")
	if command == "" {
		return fmt.Errorf("command required, e.g. bmadrun run --agent dev \"implement the feature\"")
	}

	ctx := context.Background()
	c, err := client.FromConfig(ctx, cfg, dir)
	if err != nil {
		return fmt.Errorf("initializing client: %w", err)
	}

	sess := c.NewSession(runAgent, command)

	unsubscribe := event.Subscribe(event.SessionQuestion, func(evt event.Event) {
		data, ok := evt.Data.(event.SessionQuestionData)
		if !ok || data.SessionID != sess.ID() {
			return
		}
		answerPendingQuestion(sess, data.Question)
	})
	defer unsubscribe()

	fmt.Printf("Running agent %q: %s\n\n", runAgent, truncate(command, 100))

	result, err := sess.Execute(ctx)
	if err != nil {
		return fmt.Errorf("session failed: %w", err)
	}

	fmt.Println(result.FinalResponse)
	for _, doc := range result.Documents {
		fmt.Printf("\n--- %s ---\n%s\n", doc.Path, doc.Content)
	}
	fmt.Printf("\ncost: $%.4f across %d API call(s)\n", result.Costs.TotalCost, result.Costs.APICalls)

	if result.Status != "completed" {
		return fmt.Errorf("session ended with status %s: %s", result.Status, result.Error)
	}
	return nil
}

func answerPendingQuestion(sess *session.Session, question string) {
	fmt.Printf("\n? %s\n> ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, _ := reader.ReadString('\n')
	if err := sess.Answer(strings.TrimSpace(answer)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to deliver answer: %v\n", err)
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
