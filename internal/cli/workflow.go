package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// pollInterval — период опроса состояния при --wait и --follow.
const pollInterval = time.Second

// NewWorkflowCmd создаёт группу команд для управления сценарием.
func NewWorkflowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow",
		Short: "Manage the deployment workflow",
	}

	cmd.AddCommand(
		newWorkflowDefinitionCmd(clientFn, outputFn),
		newWorkflowStateCmd(clientFn, outputFn),
		newWorkflowLogsCmd(clientFn, outputFn),
		newWorkflowBootstrapCmd(clientFn, outputFn),
		newWorkflowRunCmd(clientFn, outputFn),
		newWorkflowStepCmd(clientFn, outputFn),
		newWorkflowResetCmd(clientFn, outputFn),
		newWorkflowCancelCmd(clientFn, outputFn),
		newWorkflowHistoryCmd(clientFn, outputFn),
	)

	return cmd
}

func newWorkflowDefinitionCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "definition",
		Short: "Show workflow step definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			defs, err := client.Definition()
			if err != nil {
				return err
			}

			headers := []string{"CODE", "TITLE", "ACTOR", "IN", "OUT"}
			rows := make([][]string, len(defs))
			for i, d := range defs {
				rows[i] = []string{
					d.Code,
					d.Title,
					d.Actor,
					strings.Join(d.DataFlow.In, ","),
					strings.Join(d.DataFlow.Out, ","),
				}
			}

			out.Print(headers, rows, defs)
			return nil
		},
	}
}

func newWorkflowStateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show current run state",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			st, err := client.State()
			if err != nil {
				return err
			}

			printState(out, st)
			return nil
		},
	}
}

// printState выводит состояние прогона и статусы шагов.
func printState(out *Output, st *StateResponse) {
	headers := []string{"STEP", "STATUS"}
	rows := make([][]string, len(st.Steps))
	for i, s := range st.Steps {
		rows[i] = []string{s.Code, s.Status}
	}
	out.Print(headers, rows, st)

	status := st.Status
	if status == "" {
		status = "IDLE"
	}
	out.Success(fmt.Sprintf("Run: %s", status))
	if st.Error != "" {
		out.Error(st.Error)
	}
}

func newWorkflowLogsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var follow bool
	var offset int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the run log",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			for {
				logs, err := client.Logs(offset)
				if err != nil {
					return err
				}

				printLogEntries(out, logs.Entries)
				offset = logs.NextOffset

				if !follow {
					return nil
				}

				st, err := client.State()
				if err != nil {
					return err
				}
				if !st.Running {
					return nil
				}
				time.Sleep(pollInterval)
			}
		},
	}

	cmd.Flags().BoolVar(&follow, "follow", false, "Keep printing new entries until the run finishes")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip the first N entries")

	return cmd
}

// printLogEntries выводит записи журнала построчно.
func printLogEntries(out *Output, entries []LogEntryResponse) {
	for _, e := range entries {
		out.Line(fmt.Sprintf("%s  [%s] %-4s %-8s %s", e.Time, e.Type, e.StepCode, e.Actor, e.Summary))
	}
}

func newWorkflowBootstrapCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "bootstrap",
		Short: "Prepare actor sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			st, err := client.Bootstrap()
			if err != nil {
				return err
			}

			headers := []string{"ROLE", "USER_ID", "EMAIL", "ORG_ID"}
			var rows [][]string
			for role, u := range st.Context.Users {
				rows = append(rows, []string{role, u.ID, u.Email, u.OrgID})
			}

			out.Print(headers, rows, st.Context.Users)
			out.Success(fmt.Sprintf("Sessions ready: %d", len(st.Context.Users)))
			return nil
		},
	}
}

func newWorkflowRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a full workflow run",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			runID, err := client.StartRun()
			if err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Run started: %s", runID))

			if !wait {
				return nil
			}

			st, err := waitForRun(client)
			if err != nil {
				return err
			}
			printState(out, st)
			if st.Status != "SUCCEEDED" {
				return fmt.Errorf("run finished with status %s", st.Status)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Block until the run finishes")

	return cmd
}

// waitForRun опрашивает состояние до завершения прогона.
func waitForRun(client *Client) (*StateResponse, error) {
	for {
		st, err := client.State()
		if err != nil {
			return nil, err
		}
		if !st.Running {
			return st, nil
		}
		time.Sleep(pollInterval)
	}
}

func newWorkflowStepCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "step CODE",
		Short: "Run a single workflow step",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			code := strings.ToUpper(args[0])
			if err := client.RunStep(code); err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Step started: %s", code))

			if !wait {
				return nil
			}

			st, err := waitForRun(client)
			if err != nil {
				return err
			}
			for _, s := range st.Steps {
				if s.Code == code && s.Status != "SUCCESS" {
					return fmt.Errorf("step %s finished with status %s", code, s.Status)
				}
			}
			out.Success(fmt.Sprintf("Step done: %s", code))
			return nil
		},
	}

	cmd.Flags().BoolVar(&wait, "wait", false, "Block until the step finishes")

	return cmd
}

func newWorkflowResetCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var keepUsers bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset the workflow state",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.Reset(keepUsers); err != nil {
				return err
			}

			if keepUsers {
				out.Success("Workflow reset, sessions kept")
			} else {
				out.Success("Workflow and backend state reset")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&keepUsers, "keep-users", false, "Keep actor sessions, clear identifiers only")

	return cmd
}

func newWorkflowCancelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the active run",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.Cancel(); err != nil {
				return err
			}
			out.Success("Cancellation requested")
			return nil
		},
	}
}

func newWorkflowHistoryCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var limit int
	var logsFor string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show archived runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if logsFor != "" {
				logs, err := client.RunLogs(logsFor)
				if err != nil {
					return err
				}
				printLogEntries(out, logs)
				return nil
			}

			records, err := client.ListRuns(limit)
			if err != nil {
				return err
			}

			headers := []string{"ID", "STATUS", "STARTED", "FINISHED", "ERROR"}
			rows := make([][]string, len(records))
			for i, r := range records {
				rows[i] = []string{r.ID, r.Status, r.StartedAt, r.FinishedAt, r.Error}
			}

			out.Print(headers, rows, records)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs")
	cmd.Flags().StringVar(&logsFor, "logs", "", "Show the log of the given archived run")

	return cmd
}
