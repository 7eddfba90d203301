package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"emds/internal/app"
	"emds/internal/config"
	"emds/internal/db"
	"emds/internal/domain"
	"emds/internal/engine"
	"emds/internal/events"
	"emds/internal/query"
)

var rootCmd = &cobra.Command{
	Use:   "emds",
	Short: "Multi-division case approval workflow",
	Long: `emds routes cases through division assessment, an executive decision and execution tracking.
Core concepts:
- Case: a request raised by a requester. It flows IN_ASSESSMENT -> WAITING_EXEC_DECISION -> IN_EXECUTION -> COMPLETED, or ends REJECTED.
- Subtask: one division's share of a case. Divisions propose solutions, then finalize OK or NO, or send the case back for REVISION.
- Decision: the executive approves, approves with conditions, rejects or asks for a revision once every division has finalized.
- Progress: during execution divisions report 0..100 per solution; the case completes when every feasible solution reaches 100.
- Workspace: the .emds directory holding the database, plus an optional emds.yml and .env.
- Actor: pass --actor-id, or --role (and --division), or run 'emds login' to remember one.
  An explicit --role on the command line wins over the id remembered by 'emds login'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		envPath := filepath.Join(workspace, ".env")
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return fmt.Errorf("load %s: %w", envPath, err)
			}
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("EMDS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "", "acting user id")
	rootCmd.PersistentFlags().String("role", "", "act as the first user with this role")
	rootCmd.PersistentFlags().String("division", "", "division for --role reviewer")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
	_ = viper.BindPFlag("role", rootCmd.PersistentFlags().Lookup("role"))
	_ = viper.BindPFlag("division", rootCmd.PersistentFlags().Lookup("division"))
}

func registerCommands() {
	rootCmd.AddCommand(caseCmd())
	rootCmd.AddCommand(solutionCmd())
	rootCmd.AddCommand(subtaskCmd())
	rootCmd.AddCommand(progressCmd())
	rootCmd.AddCommand(noteCmd())
	rootCmd.AddCommand(decideCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(divisionCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(inboxCmd())
	rootCmd.AddCommand(executionCmd())
	rootCmd.AddCommand(decisionsCmd())
	rootCmd.AddCommand(monitorCmd())
	rootCmd.AddCommand(archiveCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(templatesCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(whoamiCmd())
	rootCmd.AddCommand(statusCmd())
}

// --- cases ---

func caseCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "case",
		Short: "Manage cases",
		Long:  "Cases are requests assessed by one subtask per involved division. Requesters create them from a template or a custom division list and answer revision requests with 'case edit'.",
	}
	c.AddCommand(caseCreateCmd())
	c.AddCommand(caseListCmd())
	c.AddCommand(caseShowCmd())
	c.AddCommand(caseEditCmd())
	c.AddCommand(caseCloneCmd())
	return c
}

func caseInputFlags(cmd *cobra.Command, in *engine.CaseInput, urgency *string, required, optional *[]string) {
	cmd.Flags().StringVar(&in.Title, "title", "", "title")
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	cmd.Flags().StringVar(&in.Location, "location", "", "location")
	cmd.Flags().StringVar(urgency, "urgency", "", "LOW, MEDIUM, HIGH or CRITICAL")
	cmd.Flags().StringVar(&in.TargetDate, "target-date", "", "target date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&in.Justification, "justification", "", "justification")
	cmd.Flags().StringVar(&in.AttachmentURL, "attachment", "", "attachment url")
	cmd.Flags().StringArrayVar(required, "division", []string{}, "required division code (repeatable)")
	cmd.Flags().StringArrayVar(optional, "optional", []string{}, "optional division code (repeatable)")
}

func caseCreateCmd() *cobra.Command {
	var in engine.CaseInput
	var urgency string
	var required, optional []string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a case",
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Urgency = domain.Urgency(strings.ToUpper(urgency))
			in.RequiredDivisions = divisionCodes(required)
			in.OptionalDivisions = divisionCodes(optional)
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				c, err := rt.Engine.CreateCase(ctx, actor, in)
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	caseInputFlags(cmd, &in, &urgency, &required, &optional)
	cmd.Flags().StringVar(&in.TemplateID, "template", "", "template id (see 'emds templates')")
	return cmd
}

func caseListCmd() *cobra.Command {
	var f query.CaseFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cases visible to the actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				snap := rt.Engine.Snapshot()
				cases := query.FilterCases(query.VisibleCases(actor, snap.Cases, snap.Subtasks), f)
				return printCases(cases, snap.Subtasks)
			})
		},
	}
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter (ALL for any)")
	cmd.Flags().StringVar(&f.Search, "search", "", "title or description contains")
	cmd.Flags().StringVar(&f.Sort, "sort", query.SortNewest, "newest or oldest")
	return cmd
}

type caseDetail struct {
	Case     domain.Case                `json:"case"`
	Progress int                        `json:"progress"`
	Subtasks []domain.Subtask           `json:"subtasks"`
	Notes    []domain.CollaborationNote `json:"notes"`
	Logs     []domain.Log               `json:"logs"`
}

func caseShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a case with its subtasks, notes and history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				snap := rt.Engine.Snapshot()
				c, err := rt.Engine.Case(id)
				if err != nil {
					return err
				}
				if !query.CanSeeCase(actor, id, snap.Cases, snap.Subtasks) {
					return domain.NotFound("case", id)
				}
				detail := caseDetail{
					Case:     c,
					Progress: query.CaseProgress(id, snap.Subtasks),
					Subtasks: domain.SubtasksOf(id, snap.Subtasks),
					Notes:    query.VisibleNotes(actor.Division, id, snap.CollaborationNotes),
					Logs:     events.ForCase(snap.Logs, id),
				}
				if actor.Role != domain.RoleReviewer {
					detail.Notes = notesOf(id, snap.CollaborationNotes)
				}
				if viper.GetBool("json") {
					return printJSON(detail)
				}
				printCaseDetail(detail)
				return nil
			})
		},
	}
	return cmd
}

func caseEditCmd() *cobra.Command {
	var title, description, location, urgency, targetDate, justification, attachment string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a case in REVISION and send it back to assessment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var edit engine.CaseEdit
			flags := cmd.Flags()
			if flags.Changed("title") {
				edit.Title = &title
			}
			if flags.Changed("description") {
				edit.Description = &description
			}
			if flags.Changed("location") {
				edit.Location = &location
			}
			if flags.Changed("urgency") {
				u := domain.Urgency(strings.ToUpper(urgency))
				edit.Urgency = &u
			}
			if flags.Changed("target-date") {
				edit.TargetDate = &targetDate
			}
			if flags.Changed("justification") {
				edit.Justification = &justification
			}
			if flags.Changed("attachment") {
				edit.AttachmentURL = &attachment
			}
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				c, err := rt.Engine.EditCaseBlockA(ctx, actor, args[0], edit)
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&location, "location", "", "location")
	cmd.Flags().StringVar(&urgency, "urgency", "", "urgency")
	cmd.Flags().StringVar(&targetDate, "target-date", "", "target date")
	cmd.Flags().StringVar(&justification, "justification", "", "justification")
	cmd.Flags().StringVar(&attachment, "attachment", "", "attachment url")
	return cmd
}

func caseCloneCmd() *cobra.Command {
	var in engine.CaseInput
	var urgency string
	var required, optional []string
	cmd := &cobra.Command{
		Use:   "clone <id>",
		Short: "Create a new case pre-filled from an existing one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Urgency = domain.Urgency(strings.ToUpper(urgency))
			in.RequiredDivisions = divisionCodes(required)
			in.OptionalDivisions = divisionCodes(optional)
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				c, err := rt.Engine.CloneCase(ctx, actor, args[0], in)
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	caseInputFlags(cmd, &in, &urgency, &required, &optional)
	return cmd
}

// --- assessment ---

func solutionCmd() *cobra.Command {
	s := &cobra.Command{
		Use:   "solution",
		Short: "Propose and maintain subtask solutions",
		Long:  "Solutions are a division's proposals on its subtask. They can change until the subtask is finalized; adding one to a finalized subtask reopens it.",
	}
	s.AddCommand(solutionAddCmd())
	s.AddCommand(solutionEditCmd())
	s.AddCommand(solutionDeleteCmd())
	return s
}

func solutionAddCmd() *cobra.Command {
	var in engine.SolutionInput
	cmd := &cobra.Command{
		Use:   "add <subtask-id>",
		Short: "Add a solution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				s, err := rt.Engine.AddSolution(ctx, actor, args[0], in)
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&in.Title, "title", "", "title")
	cmd.Flags().StringVar(&in.Description, "description", "", "description")
	cmd.Flags().BoolVar(&in.IsFeasible, "feasible", true, "solution is feasible")
	cmd.Flags().StringVar(&in.AttachmentURL, "attachment", "", "attachment url")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func solutionEditCmd() *cobra.Command {
	var title, description, attachment string
	var feasible bool
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a solution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var edit engine.SolutionEdit
			if cmd.Flags().Changed("title") {
				edit.Title = &title
			}
			if cmd.Flags().Changed("description") {
				edit.Description = &description
			}
			if cmd.Flags().Changed("attachment") {
				edit.AttachmentURL = &attachment
			}
			if cmd.Flags().Changed("feasible") {
				edit.IsFeasible = &feasible
			}
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				s, err := rt.Engine.EditSolution(ctx, actor, args[0], edit)
				if err != nil {
					return err
				}
				return printJSONOrTable(s)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().BoolVar(&feasible, "feasible", true, "solution is feasible")
	cmd.Flags().StringVar(&attachment, "attachment", "", "attachment url")
	return cmd
}

func solutionDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a solution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				if err := rt.Engine.DeleteSolution(ctx, actor, args[0]); err != nil {
					return err
				}
				return printResult(map[string]any{"deleted": args[0]}, "solution deleted")
			})
		},
	}
}

func subtaskCmd() *cobra.Command {
	s := &cobra.Command{Use: "subtask", Short: "Finalize or send back subtasks"}
	s.AddCommand(subtaskFinalizeCmd())
	s.AddCommand(subtaskReviseCmd())
	return s
}

func subtaskFinalizeCmd() *cobra.Command {
	var outcome string
	cmd := &cobra.Command{
		Use:   "finalize <id>",
		Short: "Finalize a subtask as OK or NO",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				st, err := rt.Engine.FinalizeSubtask(ctx, actor, args[0], domain.TaskStatus(strings.ToUpper(outcome)))
				if err != nil {
					return err
				}
				return printJSONOrTable(st)
			})
		},
	}
	cmd.Flags().StringVar(&outcome, "outcome", "", "OK or NO")
	_ = cmd.MarkFlagRequired("outcome")
	return cmd
}

func subtaskReviseCmd() *cobra.Command {
	var note string
	cmd := &cobra.Command{
		Use:   "revise <id>",
		Short: "Ask the requester to revise the case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				st, err := rt.Engine.RequestRevision(ctx, actor, args[0], note)
				if err != nil {
					return err
				}
				return printJSONOrTable(st)
			})
		},
	}
	cmd.Flags().StringVar(&note, "note", "", "what needs to change")
	_ = cmd.MarkFlagRequired("note")
	return cmd
}

func noteCmd() *cobra.Command {
	n := &cobra.Command{Use: "note", Short: "Division collaboration notes"}
	n.AddCommand(noteAddCmd())
	n.AddCommand(noteListCmd())
	return n
}

func noteAddCmd() *cobra.Command {
	var to, content string
	cmd := &cobra.Command{
		Use:   "add <case-id>",
		Short: "Send a note from the actor's division",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				n, err := rt.Engine.AddCollaborationNote(ctx, actor, args[0], domain.DivisionCode(strings.ToUpper(to)), content)
				if err != nil {
					return err
				}
				return printJSONOrTable(n)
			})
		},
	}
	cmd.Flags().StringVar(&to, "to", string(domain.TargetAll), "target division code or ALL")
	cmd.Flags().StringVar(&content, "content", "", "message")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func noteListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <case-id>",
		Short: "List the notes of a case the actor may read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				snap := rt.Engine.Snapshot()
				notes := notesOf(args[0], snap.CollaborationNotes)
				if actor.Role == domain.RoleReviewer {
					notes = query.VisibleNotes(actor.Division, args[0], snap.CollaborationNotes)
				}
				if viper.GetBool("json") {
					return printJSON(notes)
				}
				tw := newTable("Time", "From", "To", "Sender", "Content")
				for _, n := range notes {
					tw.AppendRow(table.Row{n.Timestamp, n.SenderDivision, n.TargetDivision, n.SenderName, n.Content})
				}
				tw.Render()
				return nil
			})
		},
	}
}

// --- decision and execution ---

func decideCmd() *cobra.Command {
	var decision, note string
	cmd := &cobra.Command{
		Use:   "decide <case-id>",
		Short: "Record the executive decision",
		Long:  "APPROVE and APPROVE_WITH_CONDITIONS start execution, REJECT closes the case, REVISION sends it back to the requester.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				c, err := rt.Engine.SubmitExecutiveDecision(ctx, actor, args[0], domain.ExecutiveDecision(strings.ToUpper(decision)), note)
				if err != nil {
					return err
				}
				return printJSONOrTable(c)
			})
		},
	}
	cmd.Flags().StringVar(&decision, "decision", "", "APPROVE, APPROVE_WITH_CONDITIONS, REVISION or REJECT")
	cmd.Flags().StringVar(&note, "note", "", "decision note")
	_ = cmd.MarkFlagRequired("decision")
	return cmd
}

func progressCmd() *cobra.Command {
	p := &cobra.Command{Use: "progress", Short: "Execution progress"}
	p.AddCommand(progressRecordCmd())
	return p
}

func progressRecordCmd() *cobra.Command {
	var in engine.ProgressInput
	cmd := &cobra.Command{
		Use:   "record <solution-id>",
		Short: "Report progress on a solution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				s, applied, err := rt.Engine.RecordProgress(ctx, actor, args[0], in)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"applied": applied, "solution": s})
				}
				if !applied {
					fmt.Printf("ignored: %d%% is below the current %d%%\n", in.Percent, s.CurrentProgress)
					return nil
				}
				fmt.Printf("%s now at %d%%\n", s.ID, s.CurrentProgress)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&in.Percent, "percent", 0, "progress 0..100")
	cmd.Flags().StringVar(&in.Note, "note", "", "progress note")
	cmd.Flags().StringVar(&in.EvidenceURL, "evidence", "", "evidence url")
	_ = cmd.MarkFlagRequired("percent")
	return cmd
}

// --- views ---

func inboxCmd() *cobra.Command {
	var division string
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Subtasks awaiting the division's assessment",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				snap := rt.Engine.Snapshot()
				return printTasks(query.DivisionInbox(viewDivision(actor, division), snap.Cases, snap.Subtasks))
			})
		},
	}
	cmd.Flags().StringVar(&division, "for", "", "division code (defaults to the actor's)")
	return cmd
}

func executionCmd() *cobra.Command {
	var division string
	cmd := &cobra.Command{
		Use:   "execution",
		Short: "Subtasks of the division on cases in execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				snap := rt.Engine.Snapshot()
				return printTasks(query.ExecutionQueue(viewDivision(actor, division), snap.Cases, snap.Subtasks))
			})
		},
	}
	cmd.Flags().StringVar(&division, "for", "", "division code (defaults to the actor's)")
	return cmd
}

func decisionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decisions",
		Short: "Cases waiting for the executive",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				snap := rt.Engine.Snapshot()
				return printCases(query.DecisionQueue(snap.Cases), snap.Subtasks)
			})
		},
	}
}

func monitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Decided cases with execution progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				snap := rt.Engine.Snapshot()
				return printCases(query.MonitoringCases(snap.Cases), snap.Subtasks)
			})
		},
	}
}

func archiveCmd() *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Completed and rejected cases",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				snap := rt.Engine.Snapshot()
				return printCases(query.Archive(snap.Cases, search), snap.Subtasks)
			})
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "title or description contains")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Case counts by status and urgency",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				st := query.ComputeStats(rt.Engine.Snapshot().Cases)
				if viper.GetBool("json") {
					return printJSON(st)
				}
				tw := newTable("Metric", "Value")
				tw.AppendRow(table.Row{"total", st.Total})
				for _, s := range st.ByStatus {
					tw.AppendRow(table.Row{"status " + string(s.Status), s.Count})
				}
				for _, u := range st.ByUrgency {
					tw.AppendRow(table.Row{"urgency " + string(u.Urgency), u.Count})
				}
				tw.AppendRow(table.Row{"avg turnaround (days)", fmt.Sprintf("%.1f", st.AvgTurnaroundDays)})
				tw.Render()
				return nil
			})
		},
	}
}

func templatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List case templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				tpls := rt.Engine.Templates()
				if viper.GetBool("json") {
					return printJSON(tpls)
				}
				tw := newTable("ID", "Name", "Required", "Optional")
				for _, t := range tpls {
					tw.AppendRow(table.Row{t.ID, t.Name, joinCodes(t.RequiredDivisions), joinCodes(t.OptionalDivisions)})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func logCmd() *cobra.Command {
	l := &cobra.Command{Use: "log", Short: "Activity log"}
	l.AddCommand(logTailCmd())
	return l
}

func logTailCmd() *cobra.Command {
	var n int
	var caseID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Show the latest activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				logs := rt.Engine.Snapshot().Logs
				if caseID != "" {
					logs = events.ForCase(logs, caseID)
				}
				if n > 0 && len(logs) > n {
					logs = logs[:n]
				}
				if viper.GetBool("json") {
					return printJSON(logs)
				}
				tw := newTable("Time", "Case", "User", "Action", "Details")
				for _, l := range logs {
					tw.AppendRow(table.Row{l.Timestamp, l.CaseID, l.UserName, l.Action, l.Details})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of entries")
	cmd.Flags().StringVar(&caseID, "case", "", "case id filter")
	return cmd
}

// --- administration ---

func userCmd() *cobra.Command {
	u := &cobra.Command{Use: "user", Short: "Manage users"}
	u.AddCommand(userListCmd())
	u.AddCommand(userAddCmd())
	u.AddCommand(userUpdateCmd())
	u.AddCommand(userDeleteCmd())
	return u
}

func userListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				users := rt.Engine.Snapshot().Users
				if viper.GetBool("json") {
					return printJSON(users)
				}
				tw := newTable("ID", "Name", "Role", "Division")
				for _, u := range users {
					tw.AppendRow(table.Row{u.ID, u.Name, u.Role, u.Division})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func userAddCmd() *cobra.Command {
	var id, name, role, division, avatar string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			u := domain.User{
				ID:       id,
				Name:     name,
				Role:     domain.Role(role),
				Division: domain.DivisionCode(strings.ToUpper(division)),
				Avatar:   avatar,
			}
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				created, err := rt.Engine.AddUser(ctx, actor, u)
				if err != nil {
					return err
				}
				return printJSONOrTable(created)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "user id (generated if omitted)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "user-role", "", "admin, requester, reviewer or executive")
	cmd.Flags().StringVar(&division, "user-division", "", "division code (reviewers only)")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar url")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("user-role")
	return cmd
}

func userUpdateCmd() *cobra.Command {
	var name, role, division, avatar string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var edit engine.UserEdit
			if cmd.Flags().Changed("name") {
				edit.Name = &name
			}
			if cmd.Flags().Changed("user-role") {
				r := domain.Role(role)
				edit.Role = &r
			}
			if cmd.Flags().Changed("user-division") {
				d := domain.DivisionCode(strings.ToUpper(division))
				edit.Division = &d
			}
			if cmd.Flags().Changed("avatar") {
				edit.Avatar = &avatar
			}
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				u, err := rt.Engine.UpdateUser(ctx, actor, args[0], edit)
				if err != nil {
					return err
				}
				return printJSONOrTable(u)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "user-role", "", "role")
	cmd.Flags().StringVar(&division, "user-division", "", "division code, empty to clear")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar url")
	return cmd
}

func userDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				if err := rt.Engine.DeleteUser(ctx, actor, args[0]); err != nil {
					return err
				}
				return printResult(map[string]any{"deleted": args[0]}, "user deleted")
			})
		},
	}
}

func divisionCmd() *cobra.Command {
	d := &cobra.Command{Use: "division", Short: "Manage divisions"}
	d.AddCommand(divisionListCmd())
	d.AddCommand(divisionAddCmd())
	d.AddCommand(divisionUpdateCmd())
	d.AddCommand(divisionDeleteCmd())
	return d
}

func divisionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List divisions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				divs := rt.Engine.Snapshot().Divisions
				if viper.GetBool("json") {
					return printJSON(divs)
				}
				tw := newTable("ID", "Code", "Name", "Description")
				for _, d := range divs {
					tw.AppendRow(table.Row{d.ID, d.Code, d.Name, d.Description})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func divisionAddCmd() *cobra.Command {
	var d domain.DivisionConfig
	var code string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a division",
		RunE: func(cmd *cobra.Command, args []string) error {
			d.Code = domain.DivisionCode(strings.ToUpper(code))
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				created, err := rt.Engine.AddDivision(ctx, actor, d)
				if err != nil {
					return err
				}
				return printJSONOrTable(created)
			})
		},
	}
	cmd.Flags().StringVar(&d.ID, "id", "", "division id (generated if omitted)")
	cmd.Flags().StringVar(&code, "code", "", "short uppercase code")
	cmd.Flags().StringVar(&d.Name, "name", "", "name")
	cmd.Flags().StringVar(&d.Description, "description", "", "description")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func divisionUpdateCmd() *cobra.Command {
	var code, name, description string
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a division",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var edit engine.DivisionEdit
			if cmd.Flags().Changed("code") {
				c := domain.DivisionCode(strings.ToUpper(code))
				edit.Code = &c
			}
			if cmd.Flags().Changed("name") {
				edit.Name = &name
			}
			if cmd.Flags().Changed("description") {
				edit.Description = &description
			}
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				d, err := rt.Engine.UpdateDivision(ctx, actor, args[0], edit)
				if err != nil {
					return err
				}
				return printJSONOrTable(d)
			})
		},
	}
	cmd.Flags().StringVar(&code, "code", "", "short uppercase code")
	cmd.Flags().StringVar(&name, "name", "", "name")
	cmd.Flags().StringVar(&description, "description", "", "description")
	return cmd
}

func divisionDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an unreferenced division",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				if err := rt.Engine.DeleteDivision(ctx, actor, args[0]); err != nil {
					return err
				}
				return printResult(map[string]any{"deleted": args[0]}, "division deleted")
			})
		},
	}
}

// --- config and session ---

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect workspace config",
		Long:  "Config (emds.yml in the workspace) holds the case template catalog, role permissions, engine switches and logging. Without it the built-in defaults apply.",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default emds.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force)", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			return printResult(map[string]any{"path": path}, "wrote "+path)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show loaded config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSONOrTable(cfg)
		},
	}
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate emds.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.Load(viper.GetString("workspace"))
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
}

func loginCmd() *cobra.Command {
	var role, division string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Remember an acting user in the workspace .env",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				actor := app.Login(rt.Engine.Snapshot().Users, domain.Role(role), domain.DivisionCode(strings.ToUpper(division)))
				if actor.ID == "temp" {
					return fmt.Errorf("no %s user found", role)
				}
				if err := setEnvValue(filepath.Join(workspace, ".env"), "EMDS_ACTOR_ID", actor.ID); err != nil {
					return err
				}
				return printResult(actor, fmt.Sprintf("logged in as %s (%s)", actor.Name, actor.ID))
			})
		},
	}
	cmd.Flags().StringVar(&role, "as", "", "admin, requester, reviewer or executive")
	cmd.Flags().StringVar(&division, "in", "", "division code for reviewers")
	_ = cmd.MarkFlagRequired("as")
	return cmd
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the acting user and its permissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withActor(cmd.Context(), func(ctx context.Context, rt *app.Runtime, actor domain.Actor) error {
				return printJSONOrTable(map[string]any{
					"actor":       actor,
					"permissions": rt.Engine.Auth.ActorPermissions(actor),
				})
			})
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the workspace schema version and last snapshot write",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), func(ctx context.Context, rt *app.Runtime) error {
				st, err := rt.Status(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(st)
				}
				tw := newTable("Key", "Value")
				tw.AppendRow(table.Row{"Schema", fmt.Sprintf("%d/%d", st.SchemaVersion, st.LatestSchema)})
				tw.AppendRow(table.Row{"Snapshot updated", st.SnapshotUpdatedAt})
				tw.AppendRow(table.Row{"Cases", st.Cases})
				tw.AppendRow(table.Row{"Subtasks", st.Subtasks})
				tw.AppendRow(table.Row{"Users", st.Users})
				tw.Render()
				return nil
			})
		},
	}
}

// --- helpers ---

func withRuntime(ctx context.Context, fn func(context.Context, *app.Runtime) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := app.Open(ctx, viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(ctx, rt)
}

func withActor(ctx context.Context, fn func(context.Context, *app.Runtime, domain.Actor) error) error {
	return withRuntime(ctx, func(ctx context.Context, rt *app.Runtime) error {
		flags := rootCmd.PersistentFlags()
		actor, err := app.ResolveActor(
			rt.Engine.Snapshot().Users,
			pickActorID(viper.GetString("actor-id"), flags.Changed("actor-id"), flags.Changed("role")),
			domain.Role(viper.GetString("role")),
			domain.DivisionCode(strings.ToUpper(viper.GetString("division"))),
		)
		if err != nil {
			return err
		}
		return fn(ctx, rt, actor)
	})
}

// pickActorID drops the id remembered in .env when the command line names a
// role but no id, so --role is not shadowed by EMDS_ACTOR_ID.
func pickActorID(id string, idFlagSet, roleFlagSet bool) string {
	if roleFlagSet && !idFlagSet {
		return ""
	}
	return id
}

func viewDivision(actor domain.Actor, override string) domain.DivisionCode {
	if override != "" {
		return domain.DivisionCode(strings.ToUpper(override))
	}
	return actor.Division
}

func divisionCodes(items []string) []domain.DivisionCode {
	var out []domain.DivisionCode
	for _, it := range items {
		for _, part := range strings.Split(it, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, domain.DivisionCode(strings.ToUpper(part)))
			}
		}
	}
	return out
}

func joinCodes(codes []domain.DivisionCode) string {
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = string(c)
	}
	return strings.Join(parts, ", ")
}

func notesOf(caseID string, notes []domain.CollaborationNote) []domain.CollaborationNote {
	res := []domain.CollaborationNote{}
	for _, n := range notes {
		if n.CaseID == caseID {
			res = append(res, n)
		}
	}
	return res
}

func newTable(headers ...any) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row(headers))
	return tw
}

func printCases(cases []domain.Case, subtasks []domain.Subtask) error {
	if viper.GetBool("json") {
		return printJSON(cases)
	}
	tw := newTable("ID", "Title", "Status", "Urgency", "Progress", "Requester", "Created")
	for _, c := range cases {
		tw.AppendRow(table.Row{c.ID, c.Title, c.Status, c.Urgency, fmt.Sprintf("%d%%", query.CaseProgress(c.ID, subtasks)), c.RequesterName, c.CreatedAt})
	}
	tw.Render()
	return nil
}

func printTasks(tasks []query.TaskView) error {
	if viper.GetBool("json") {
		return printJSON(tasks)
	}
	tw := newTable("Subtask", "Case", "Title", "Case Status", "Task Status", "Solutions")
	for _, t := range tasks {
		tw.AppendRow(table.Row{t.Subtask.ID, t.Case.ID, t.Case.Title, t.Case.Status, t.Subtask.Status, len(t.Subtask.Solutions)})
	}
	tw.Render()
	return nil
}

func printCaseDetail(d caseDetail) {
	c := d.Case
	fmt.Printf("%s  %s\n", c.ID, c.Title)
	fmt.Printf("status: %s  urgency: %s  progress: %d%%  template: %s\n", c.Status, c.Urgency, d.Progress, c.TemplateID)
	fmt.Printf("requester: %s  created: %s  target: %s\n", c.RequesterName, c.CreatedAt, c.TargetDate)
	if c.ExecutiveDecision != "" {
		fmt.Printf("decision: %s %s\n", c.ExecutiveDecision, c.ExecutiveNote)
	}

	tw := newTable("Subtask", "Division", "Status", "Solution", "Feasible", "Progress")
	for _, st := range d.Subtasks {
		if len(st.Solutions) == 0 {
			tw.AppendRow(table.Row{st.ID, st.Division, st.Status, "", "", ""})
			continue
		}
		for _, s := range st.Solutions {
			tw.AppendRow(table.Row{st.ID, st.Division, st.Status, s.ID + " " + s.Title, s.IsFeasible, fmt.Sprintf("%d%%", s.CurrentProgress)})
		}
	}
	tw.Render()

	if len(d.Notes) > 0 {
		nw := newTable("Time", "From", "To", "Content")
		for _, n := range d.Notes {
			nw.AppendRow(table.Row{n.Timestamp, n.SenderDivision, n.TargetDivision, n.Content})
		}
		nw.Render()
	}
	lw := newTable("Time", "User", "Action", "Details")
	for _, l := range d.Logs {
		lw.AppendRow(table.Row{l.Timestamp, l.UserName, l.Action, l.Details})
	}
	lw.Render()
}

func printResult(v any, msg string) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	fmt.Println(msg)
	return nil
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setEnvValue(path, key, value string) error {
	var lines []string
	seen := false
	f, err := os.Open(path)
	if err == nil {
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, key+"=") {
				lines = append(lines, fmt.Sprintf("%s=%s", key, value))
				seen = true
			} else {
				lines = append(lines, line)
			}
		}
		if err := scanner.Err(); err != nil {
			f.Close()
			return err
		}
		f.Close()
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if !seen {
		lines = append(lines, fmt.Sprintf("%s=%s", key, value))
	}
	content := strings.Join(lines, "\n")
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
