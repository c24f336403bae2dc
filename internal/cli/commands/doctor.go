package commands

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapschema/internal/cli/config"
	"github.com/leapstack-labs/leapschema/internal/cli/output"
	"github.com/leapstack-labs/leapschema/internal/state"
	"github.com/leapstack-labs/leapschema/pkg/adapter"
	"github.com/leapstack-labs/leapschema/pkg/core"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, markdown, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the project setup and the health of stored schemas",
		Long: `Check your LeapSchema project and state store for problems.

The doctor command reports:
- Project summary (datasets, versions, fields, edits)
- Setup checks (config file, state store, capture target, watch directory)
- Documentation checks (undocumented fields, orphaned edits, history depth)
- Health score (0-100)
- Actionable recommendations

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  leapschema doctor

  # Output as JSON
  leapschema doctor --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         ProjectSummary `json:"summary"`
	HealthChecks    []HealthCheck  `json:"health_checks"`
	Score           int            `json:"score"`
	Recommendations []string       `json:"recommendations"`
	IssueCount      int            `json:"issue_count"`
}

// ProjectSummary contains store-level statistics.
type ProjectSummary struct {
	Datasets        int `json:"datasets"`
	Versions        int `json:"versions"`
	Fields          int `json:"fields"`
	Undocumented    int `json:"undocumented"`
	Edits           int `json:"edits"`
	MigrationLevel  int `json:"migration_level"`
	CoveragePercent int `json:"coverage_percent"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	RuleID     string   `json:"rule_id"`
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"` // "pass", "warn", "error"
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	doctorOutput, err := buildDoctorOutput(cmd.Context(), cmdCtx)
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(doctorOutput)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, doctorOutput)
	default:
		return renderDoctorText(r, doctorOutput)
	}
}

func buildDoctorOutput(ctx context.Context, cmdCtx *CommandContext) (*DoctorOutput, error) {
	var summary ProjectSummary
	checks := []HealthCheck{
		checkConfigFile(),
		checkStateStore(cmdCtx.Store, &summary),
		checkCaptureTarget(ctx, cmdCtx),
		checkWatchDir(cmdCtx.Cfg),
	}

	datasetChecks, err := checkDatasets(ctx, cmdCtx.Store, &summary)
	if err != nil {
		return nil, err
	}
	checks = append(checks, datasetChecks...)

	sort.SliceStable(checks, func(i, j int) bool {
		if checks[i].Group != checks[j].Group {
			return checks[i].Group > checks[j].Group // setup first
		}
		return checks[i].RuleID < checks[j].RuleID
	})

	issues := 0
	for _, c := range checks {
		issues += c.IssueCount
	}

	return &DoctorOutput{
		Summary:         summary,
		HealthChecks:    checks,
		Score:           calculateHealthScore(checks, summary.Fields),
		Recommendations: generateRecommendations(checks),
		IssueCount:      issues,
	}, nil
}

func newCheck(id, name, group string) HealthCheck {
	return HealthCheck{RuleID: id, Name: name, Group: group, Status: "pass"}
}

func (c *HealthCheck) fail(status, detail string) {
	if c.Status != "error" {
		c.Status = status
	}
	c.IssueCount++
	c.Details = append(c.Details, detail)
}

func checkConfigFile() HealthCheck {
	c := newCheck("SC01", "Config file", "setup")
	if used := config.GetConfigFileUsed(); used == "" {
		c.fail("warn", "no leapschema.yaml found; using defaults and environment")
	} else {
		c.Details = append(c.Details, used)
	}
	return c
}

func checkStateStore(store *state.SQLiteStore, summary *ProjectSummary) HealthCheck {
	c := newCheck("SC02", "State store", "setup")
	level, err := store.GetMigrationVersion()
	if err != nil {
		c.fail("error", fmt.Sprintf("cannot read migration level: %v", err))
		return c
	}
	summary.MigrationLevel = int(level)
	c.Details = append(c.Details, fmt.Sprintf("%s (migration %d)", store.Path(), level))

	if latest, err := state.LatestMigrationVersion(); err == nil && level < latest {
		c.fail("warn", fmt.Sprintf("store is at migration %d of %d", level, latest))
	}
	return c
}

func checkCaptureTarget(ctx context.Context, cmdCtx *CommandContext) HealthCheck {
	c := newCheck("SC03", "Capture target", "setup")
	capture := cmdCtx.Cfg.Capture
	if capture == nil || capture.Target == nil {
		c.Details = append(c.Details, "not configured")
		return c
	}

	adp, err := adapter.Open(ctx, capture.Target.AdapterConfig(), cmdCtx.Logger)
	if err != nil {
		c.fail("error", err.Error())
		return c
	}
	defer func() { _ = adp.Close() }()

	tables, err := adp.ListTables(ctx, capture.Target.Schema)
	if err != nil {
		c.fail("warn", fmt.Sprintf("connected, but listing tables failed: %v", err))
		return c
	}
	c.Details = append(c.Details, fmt.Sprintf("%s: %d tables in %s", capture.Target.Type, len(tables), capture.Target.Schema))
	return c
}

func checkWatchDir(cfg *config.Config) HealthCheck {
	c := newCheck("SC04", "Watch directory", "setup")
	dir := cfg.GetUIConfig().WatchDir
	info, err := os.Stat(dir)
	switch {
	case err != nil:
		c.fail("warn", fmt.Sprintf("%s does not exist; 'leapschema serve' will create it", dir))
	case !info.IsDir():
		c.fail("error", fmt.Sprintf("%s is not a directory", dir))
	default:
		c.Details = append(c.Details, dir)
	}
	return c
}

// checkDatasets inspects the latest version and overlay of every dataset.
func checkDatasets(ctx context.Context, store *state.SQLiteStore, summary *ProjectSummary) ([]HealthCheck, error) {
	undocumented := newCheck("DC01", "Field descriptions", "documentation")
	orphaned := newCheck("DC02", "Orphaned edits", "documentation")
	history := newCheck("DC03", "Version history", "documentation")

	datasets, err := store.ListDatasets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}
	summary.Datasets = len(datasets)

	for _, d := range datasets {
		summary.Versions += d.LatestVersion
		if d.LatestVersion < 2 {
			history.fail("warn", fmt.Sprintf("%s has a single version; there is nothing to compare", d.URN))
		}

		snap, err := store.GetSnapshot(ctx, d.URN, d.LatestVersion)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", d.URN, err)
		}
		edits, err := store.LoadEdits(ctx, d.URN)
		if err != nil {
			return nil, fmt.Errorf("failed to load edits of %s: %w", d.URN, err)
		}
		summary.Edits += len(edits)

		byPath := make(map[string]core.EditOverlayEntry, len(edits))
		for _, e := range edits {
			byPath[e.FieldPath] = e
		}

		var missing []string
		present := make(map[string]bool, len(snap.Fields))
		for _, f := range snap.Fields {
			present[f.Path] = true
			desc := f.Description
			if e, ok := byPath[f.Path]; ok && e.Description != nil {
				desc = *e.Description
			}
			if strings.TrimSpace(desc) == "" {
				missing = append(missing, f.Path)
			}
		}
		summary.Fields += len(snap.Fields)
		summary.Undocumented += len(missing)
		if len(missing) > 0 {
			undocumented.fail("warn", fmt.Sprintf("%s: %d of %d fields undocumented (%s)",
				d.URN, len(missing), len(snap.Fields), strings.Join(missing, ", ")))
		}

		for _, e := range edits {
			if !present[e.FieldPath] {
				orphaned.fail("warn", fmt.Sprintf("%s: edit of %s matches no field of version %d", d.URN, e.FieldPath, d.LatestVersion))
			}
		}
	}

	if summary.Fields > 0 {
		summary.CoveragePercent = 100 * (summary.Fields - summary.Undocumented) / summary.Fields
	}
	return []HealthCheck{undocumented, orphaned, history}, nil
}

// calculateHealthScore computes a health score from 0-100.
// With more fields, each individual issue has less impact.
func calculateHealthScore(checks []HealthCheck, fieldCount int) int {
	if len(checks) == 0 {
		return 100
	}

	score := 100.0

	basePenalty := 5.0
	if fieldCount > 20 {
		basePenalty = 3.0
	}
	if fieldCount > 100 {
		basePenalty = 2.0
	}
	if fieldCount > 500 {
		basePenalty = 1.0
	}

	for _, check := range checks {
		switch check.Status {
		case "error":
			score -= float64(check.IssueCount) * basePenalty * 2 // errors count double
		case "warn":
			score -= float64(check.IssueCount) * basePenalty
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return int(score)
}

// generateRecommendations creates actionable recommendations based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	for _, check := range checks {
		if check.IssueCount == 0 {
			continue
		}
		if rec := getRecommendation(check.RuleID); rec != "" {
			recommendations = append(recommendations, rec)
		}
	}

	if len(recommendations) > 5 {
		recommendations = recommendations[:5]
	}
	return recommendations
}

// getRecommendation returns a recommendation for a specific rule.
func getRecommendation(ruleID string) string {
	switch ruleID {
	case "SC01":
		return "Run 'leapschema init' to create a leapschema.yaml"
	case "SC02":
		return "Remove or move the state store so it can be recreated"
	case "SC03":
		return "Fix capture.target in leapschema.yaml or remove it"
	case "SC04":
		return "Create the snapshot watch directory or set ui.watch_dir"
	case "DC01":
		return "Describe undocumented fields with 'leapschema edit description'"
	case "DC02":
		return "Review edits of removed fields; they no longer show in the live schema"
	case "DC03":
		return "Import or capture another version to compare schema changes"
	default:
		return ""
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("LeapSchema Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	r.Println(styles.Header2.Render("Project Summary"))
	r.Printf("   Datasets: %d | Versions: %d | Edits: %d\n", out.Summary.Datasets, out.Summary.Versions, out.Summary.Edits)
	r.Printf("   Fields: %d | Documented: %d%%\n", out.Summary.Fields, out.Summary.CoveragePercent)
	r.Println("")

	r.Println(styles.Header2.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case "warn":
			icon = styles.Warning.Render("!")
		case "error":
			icon = styles.StatusFailed.String()
		}

		status := fmt.Sprintf("%s %s: %s", icon, check.RuleID, check.Name)
		if check.IssueCount > 0 {
			status += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		r.Println("   " + status)

		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# LeapSchema Health Report")
	r.Println("")

	r.Println("## Project Summary")
	r.Println("")
	r.Println(output.FormatKeyValue("Datasets", fmt.Sprint(out.Summary.Datasets)))
	r.Println(output.FormatKeyValue("Versions", fmt.Sprint(out.Summary.Versions)))
	r.Println(output.FormatKeyValue("Fields", fmt.Sprint(out.Summary.Fields)))
	r.Println(output.FormatKeyValue("Documented", fmt.Sprintf("%d%%", out.Summary.CoveragePercent)))
	r.Println(output.FormatKeyValue("Edits", fmt.Sprint(out.Summary.Edits)))
	r.Println("")

	r.Println("## Health Checks")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + titleCaser.String(currentGroup))
			r.Println("")
		}

		status := "PASS"
		switch check.Status {
		case "warn":
			status = "WARN"
		case "error":
			status = "ERROR"
		}

		line := fmt.Sprintf("- **[%s]** %s: %s", status, check.RuleID, check.Name)
		if check.IssueCount > 0 {
			line += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		r.Println(line)

		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}
