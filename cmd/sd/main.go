package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/goccy/go-json"
	"golang.org/x/term"

	"github.com/vanderheijden86/specdeck/pkg/agents"
	"github.com/vanderheijden86/specdeck/pkg/analysis"
	"github.com/vanderheijden86/specdeck/pkg/config"
	"github.com/vanderheijden86/specdeck/pkg/drift"
	"github.com/vanderheijden86/specdeck/pkg/export"
	"github.com/vanderheijden86/specdeck/pkg/history"
	"github.com/vanderheijden86/specdeck/pkg/loader"
	"github.com/vanderheijden86/specdeck/pkg/model"
	"github.com/vanderheijden86/specdeck/pkg/normalize"
	"github.com/vanderheijden86/specdeck/pkg/recipe"
	"github.com/vanderheijden86/specdeck/pkg/store"
	"github.com/vanderheijden86/specdeck/pkg/ui"
	"github.com/vanderheijden86/specdeck/pkg/vtree"
	"github.com/vanderheijden86/specdeck/pkg/workspace"
)

const appVersion = "0.4.0"

func main() {
	help := flag.Bool("help", false, "Show help")
	versionFlag := flag.Bool("version", false, "Show version")
	projectDir := flag.String("project", "", "Project directory (default: auto-detect from cwd)")
	specFile := flag.String("spec", "", "Explicit spec file path (overrides --project)")
	rootID := flag.String("root-id", "", "Override the application id derived from the spec path")
	initProject := flag.Bool("init", false, "Create an empty spec file in the project directory")
	listProjects := flag.Bool("list-projects", false, "List registered and discovered projects")
	workspaceConfig := flag.String("workspace", "", "Load specs from a workspace config file (.specdeck/workspace.yaml)")
	exportMD := flag.String("export-md", "", "Export the spec tree to a Markdown file (e.g., report.md)")
	exportSVG := flag.String("export-svg", "", "Export the spec tree to an SVG file")
	exportPNG := flag.String("export-png", "", "Export the spec tree to a PNG file")
	robotHelp := flag.Bool("robot-help", false, "Show AI agent help")
	robotOutline := flag.Bool("robot-outline", false, "Output the flattened spec tree as JSON for AI agents")
	robotPlan := flag.Bool("robot-plan", false, "Output dependency-respecting story order as JSON for AI agents")
	robotHistory := flag.Int("robot-history", 0, "Output the last N recorded moves as JSON")
	robotRecipes := flag.Bool("robot-recipes", false, "Output available recipes as JSON for AI agents")
	recipeName := flag.String("recipe", "", "Apply named recipe to --robot-plan (e.g., ready, quick-wins)")
	recipeShort := flag.String("r", "", "Shorthand for --recipe")
	saveBaseline := flag.String("save-baseline", "", "Save current tree structure as baseline with a description")
	baselineInfo := flag.Bool("baseline-info", false, "Show information about the saved baseline")
	checkDrift := flag.Bool("check-drift", false, "Check for drift from baseline (exit codes: 0=OK, 1=critical, 2=warning)")
	robotDrift := flag.Bool("robot-drift", false, "Output drift check as JSON (use with --check-drift)")
	installAgents := flag.Bool("agents-md", false, "Add sd usage instructions to the project's AGENTS.md")
	noWatch := flag.Bool("no-watch", false, "Disable live reload when the spec file changes on disk")
	noHistory := flag.Bool("no-history", false, "Do not record moves to the history database")
	flag.Parse()

	// Handle -r shorthand
	if *recipeShort != "" && *recipeName == "" {
		*recipeName = *recipeShort
	}

	if *help {
		fmt.Println("Usage: sd [options]")
		fmt.Println("\nA TUI viewer and editor for hierarchical specification trees.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *robotHelp {
		printRobotHelp()
		os.Exit(0)
	}

	if *versionFlag {
		fmt.Printf("sd %s\n", appVersion)
		os.Exit(0)
	}

	if *listProjects {
		runListProjects()
		os.Exit(0)
	}

	if *workspaceConfig != "" {
		runWorkspaceSummary(*workspaceConfig)
		os.Exit(0)
	}

	dir := resolveProjectDir(*projectDir, *specFile)
	specPath := *specFile
	if specPath == "" {
		specPath = loader.SpecPath(dir)
	}

	recipes, err := recipe.LoadDefault(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error loading recipes: %v\n", err)
		recipes = recipe.NewLoader()
	}

	if *robotRecipes {
		output := struct {
			Recipes []recipe.Summary `json:"recipes"`
		}{
			Recipes: recipes.ListSummaries(),
		}
		encodeJSON(output)
		os.Exit(0)
	}

	var activeRecipe *recipe.Recipe
	if *recipeName != "" {
		activeRecipe = recipes.Get(*recipeName)
		if activeRecipe == nil {
			fmt.Fprintf(os.Stderr, "Error: unknown recipe '%s'\n\n", *recipeName)
			fmt.Fprintln(os.Stderr, "Available recipes:")
			for _, name := range recipes.Names() {
				r := recipes.Get(name)
				fmt.Fprintf(os.Stderr, "  %-15s %s\n", name, r.Description)
			}
			os.Exit(1)
		}
	}

	if *installAgents {
		path, changed, err := agents.Install(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error updating agent file: %v\n", err)
			os.Exit(1)
		}
		if changed {
			fmt.Printf("Added sd instructions to %s\n", path)
		} else {
			fmt.Printf("%s already has current sd instructions\n", path)
		}
		os.Exit(0)
	}

	if *initProject {
		if _, err := os.Stat(specPath); err == nil {
			fmt.Fprintf(os.Stderr, "Error: spec file already exists at %s\n", specPath)
			os.Exit(1)
		}
		if err := loader.SaveTree(specPath, &normalize.RawTree{}); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating spec file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created %s\n", specPath)
		os.Exit(0)
	}

	res, err := loader.LoadStore(specPath, *rootID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading spec: %v\n", err)
		fmt.Fprintln(os.Stderr, "Make sure the project has a .specdeck/spec.json (create one with 'sd --init').")
		os.Exit(1)
	}
	if res.Skipped > 0 {
		fmt.Fprintf(os.Stderr, "Warning: skipped %d entries without a documentId\n", res.Skipped)
	}
	s := res.Store
	title := filepath.Base(dir)

	baselinePath := drift.DefaultPath(dir)

	if *baselineInfo {
		if !drift.Exists(baselinePath) {
			fmt.Println("No baseline found.")
			fmt.Println("Create one with: sd --save-baseline \"description\"")
			os.Exit(0)
		}
		b, err := drift.Load(baselinePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading baseline: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(b.Summary())
		os.Exit(0)
	}

	if *saveBaseline != "" {
		b := drift.Capture(s, *saveBaseline)
		if err := b.Save(baselinePath); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving baseline: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Baseline saved to %s\n", baselinePath)
		fmt.Print(b.Summary())
		os.Exit(0)
	}

	if *checkDrift {
		runCheckDrift(s, dir, baselinePath, *robotDrift)
	}

	// Robot outputs and exports run without a terminal and exit.
	if *robotOutline {
		runRobotOutline(s, specPath)
		os.Exit(0)
	}
	if *robotPlan {
		runRobotPlan(s, specPath, *recipeName, activeRecipe)
		os.Exit(0)
	}
	if *robotHistory > 0 {
		runRobotHistory(dir, *robotHistory)
		os.Exit(0)
	}

	if *exportMD != "" {
		if err := export.SaveMarkdownToFile(s, title, *exportMD); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting markdown: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Exported %d epics to %s\n", s.Count(model.TypeEpic), *exportMD)
		os.Exit(0)
	}
	if *exportSVG != "" {
		if err := export.SaveSVGToFile(s, title, *exportSVG); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting SVG: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Exported spec tree to %s\n", *exportSVG)
		os.Exit(0)
	}
	if *exportPNG != "" {
		if err := export.SavePNGToFile(s, title, *exportPNG); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting PNG: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Exported spec tree to %s\n", *exportPNG)
		os.Exit(0)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: stdout is not a terminal.")
		fmt.Fprintln(os.Stderr, "Use --robot-outline, --robot-plan, or --export-md for non-interactive output.")
		os.Exit(1)
	}

	container := store.New(s)

	var histLog *history.Log
	if !*noHistory {
		histLog, err = history.Open(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: move history disabled: %v\n", err)
		} else {
			defer histLog.Close()
		}
	}

	saver := func(st *model.Store) error {
		return loader.SaveTree(specPath, normalize.Project(st))
	}

	m := ui.NewModel(container, ui.Options{
		ProjectDir: dir,
		Title:      title,
		Saver:      saver,
		History:    histLog,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if !*noWatch {
		watcher, err := loader.NewWatcher(specPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: live reload disabled: %v\n", err)
		} else {
			defer watcher.Stop()
			err = watcher.Start(func() {
				reloaded, err := loader.LoadStore(specPath, *rootID)
				if err != nil {
					// Editors save in stages; a half-written file is retried
					// on the next change event.
					return
				}
				p.Send(ui.SpecReloadedMsg{Store: reloaded.Store})
			})
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: live reload disabled: %v\n", err)
			}
		}
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// resolveProjectDir picks the project directory: explicit flag, the directory
// holding an explicit spec file, a detected ancestor with .specdeck/, or the
// working directory.
func resolveProjectDir(projectFlag, specFlag string) string {
	if projectFlag != "" {
		return projectFlag
	}
	if specFlag != "" {
		// <project>/.specdeck/spec.json
		return filepath.Dir(filepath.Dir(specFlag))
	}
	if dir, ok := config.DetectCurrentProject(); ok {
		return dir
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

func runListProjects() {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not read config: %v\n", err)
	}
	projects := config.DiscoverProjects(cfg)
	if len(projects) == 0 {
		fmt.Println("No projects found.")
		fmt.Printf("Register projects in %s or add discovery scan_paths.\n", config.DefaultPath())
		return
	}
	for _, p := range projects {
		fmt.Printf("  %-20s %s\n", p.Name, p.ResolvedPath())
	}
}

func runWorkspaceSummary(configPath string) {
	cfg, err := workspace.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading workspace: %v\n", err)
		os.Exit(1)
	}
	loaded, err := workspace.LoadAll(cfg, filepath.Dir(configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading workspace specs: %v\n", err)
		os.Exit(1)
	}

	name := cfg.Name
	if name == "" {
		name = filepath.Base(filepath.Dir(configPath))
	}
	fmt.Printf("Workspace: %s (%d specs)\n\n", name, len(loaded))
	for _, l := range loaded {
		s := l.Result.Store
		fmt.Printf("  %-20s %d epics, %d features, %d stories, %d tasks",
			l.Name,
			s.Count(model.TypeEpic), s.Count(model.TypeFeature),
			s.Count(model.TypeUserStory), s.Count(model.TypeTask))
		if l.Result.Skipped > 0 {
			fmt.Printf(" (%d skipped)", l.Result.Skipped)
		}
		fmt.Println()
	}
	fmt.Println("\nOpen one spec with: sd --project <path>")
}

type outlineRow struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Depth       int    `json:"depth"`
	Title       string `json:"title"`
	ParentID    string `json:"parentId,omitempty"`
	HasChildren bool   `json:"hasChildren"`
}

// outlineRows flattens the whole tree with every branch expanded.
func outlineRows(s *model.Store) []outlineRow {
	nodes := vtree.BuildNodes(s)
	expanded := make(map[string]bool)
	var markAll func(nodes []*vtree.Node)
	markAll = func(nodes []*vtree.Node) {
		for _, n := range nodes {
			if len(n.Children) > 0 {
				expanded[n.ID] = true
				markAll(n.Children)
			}
		}
	}
	markAll(nodes)

	rows := vtree.Flatten(nodes, expanded)
	out := make([]outlineRow, len(rows))
	for i, r := range rows {
		out[i] = outlineRow{
			ID:          r.ID,
			Type:        string(r.Type),
			Depth:       r.Depth,
			Title:       r.Label,
			ParentID:    r.ParentID,
			HasChildren: r.HasChildren,
		}
	}
	return out
}

func runRobotOutline(s *model.Store, specPath string) {
	output := struct {
		GeneratedAt string `json:"generated_at"`
		Spec        string `json:"spec"`
		Counts      struct {
			Epics       int `json:"epics"`
			Features    int `json:"features"`
			UserStories int `json:"userStories"`
			Tasks       int `json:"tasks"`
		} `json:"counts"`
		Rows []outlineRow `json:"rows"`
	}{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Spec:        specPath,
		Rows:        outlineRows(s),
	}
	output.Counts.Epics = s.Count(model.TypeEpic)
	output.Counts.Features = s.Count(model.TypeFeature)
	output.Counts.UserStories = s.Count(model.TypeUserStory)
	output.Counts.Tasks = s.Count(model.TypeTask)

	encodeJSON(output)
}

func runRobotPlan(s *model.Store, specPath, recipeName string, active *recipe.Recipe) {
	plan := analysis.StoryPlan(s)
	items := recipe.Apply(plan, s, active)

	output := struct {
		GeneratedAt string              `json:"generated_at"`
		Spec        string              `json:"spec"`
		Recipe      string              `json:"recipe,omitempty"`
		StoryCount  int                 `json:"story_count"`
		HasCycles   bool                `json:"has_cycles"`
		Items       []analysis.PlanItem `json:"items"`
		Cycles      [][]string          `json:"cycles,omitempty"`
	}{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Spec:        specPath,
		Recipe:      recipeName,
		StoryCount:  len(items),
		HasCycles:   len(plan.Cycles) > 0,
		Items:       items,
		Cycles:      plan.Cycles,
	}

	encodeJSON(output)
}

func runCheckDrift(s *model.Store, projectDir, baselinePath string, jsonOutput bool) {
	if !drift.Exists(baselinePath) {
		fmt.Fprintln(os.Stderr, "Error: no baseline found.")
		fmt.Fprintln(os.Stderr, "Create one with: sd --save-baseline \"description\"")
		os.Exit(1)
	}

	base, err := drift.Load(baselinePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading baseline: %v\n", err)
		os.Exit(1)
	}

	thresholds, err := drift.LoadThresholds(projectDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: error loading drift config: %v\n", err)
		thresholds = drift.DefaultThresholds()
	}

	current := drift.Capture(s, "current")
	result := drift.NewCalculator(base, current, thresholds).Calculate()

	if jsonOutput {
		output := struct {
			GeneratedAt string       `json:"generated_at"`
			Result      drift.Result `json:"result"`
			Baseline    struct {
				CreatedAt   string `json:"created_at"`
				Description string `json:"description,omitempty"`
			} `json:"baseline"`
		}{
			GeneratedAt: time.Now().UTC().Format(time.RFC3339),
			Result:      result,
		}
		output.Baseline.CreatedAt = base.CreatedAt.Format(time.RFC3339)
		output.Baseline.Description = base.Description
		encodeJSON(output)
	} else {
		fmt.Print(result.Format())
	}
	os.Exit(result.ExitCode)
}

func runRobotHistory(projectDir string, limit int) {
	log, err := history.Open(projectDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening move history: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	entries, err := log.Recent(limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading move history: %v\n", err)
		os.Exit(1)
	}

	output := struct {
		GeneratedAt string          `json:"generated_at"`
		Moves       []history.Entry `json:"moves"`
	}{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Moves:       entries,
	}

	encodeJSON(output)
}

func encodeJSON(v any) {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding output: %v\n", err)
		os.Exit(1)
	}
}

func printRobotHelp() {
	fmt.Println("sd (SpecDeck) AI Agent Interface")
	fmt.Println("================================")
	fmt.Println("This tool provides structural views of a hierarchical specification")
	fmt.Println("tree (Epics > Features > User Stories > Tasks). Use these commands to")
	fmt.Println("understand project state without parsing the raw spec file.")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  --robot-outline")
	fmt.Println("      Outputs the fully expanded spec tree as JSON.")
	fmt.Println("      Key fields:")
	fmt.Println("      - rows: Pre-order traversal, one row per entity")
	fmt.Println("      - depth: 0=epic, 1=feature, 2=user story, 3=task")
	fmt.Println("      - counts: Per-level entity totals")
	fmt.Println("")
	fmt.Println("  --robot-plan")
	fmt.Println("      Outputs a dependency-respecting development order for all user")
	fmt.Println("      stories as JSON.")
	fmt.Println("      Key fields:")
	fmt.Println("      - items: Stories with a suggested 1-based developmentOrder")
	fmt.Println("      - dependsOn: Story ids that must land first")
	fmt.Println("      - cycles: Circular dependency groups (unhealthy state)")
	fmt.Println("")
	fmt.Println("  --robot-history N")
	fmt.Println("      Outputs the last N recorded moves as JSON, newest first.")
	fmt.Println("      Moves record the item, its old parent, and its new parent.")
	fmt.Println("")
	fmt.Println("  --robot-recipes")
	fmt.Println("      Lists all available recipes as JSON.")
	fmt.Println("      Output: {recipes: [{name, description, source}]}")
	fmt.Println("      Sources: 'builtin', 'user' (~/.config/specdeck/recipes.yaml),")
	fmt.Println("      'project' (.specdeck/recipes.yaml)")
	fmt.Println("")
	fmt.Println("  --recipe NAME, -r NAME")
	fmt.Println("      Apply a named recipe to --robot-plan.")
	fmt.Println("      Example: sd --robot-plan -r ready")
	fmt.Println("      Built-in recipes: default, ready, quick-wins, big-bets, tangled")
	fmt.Println("")
	fmt.Println("  --save-baseline \"description\"")
	fmt.Println("      Save current tree structure as a baseline snapshot.")
	fmt.Println("      Stores counts, story ids, and cycle info in .specdeck/baseline.json.")
	fmt.Println("")
	fmt.Println("  --check-drift")
	fmt.Println("      Check current tree structure against the saved baseline.")
	fmt.Println("      Exit codes for CI integration:")
	fmt.Println("        0 = No critical or warning alerts (info-only OK)")
	fmt.Println("        1 = Critical alerts (new dependency cycles)")
	fmt.Println("        2 = Warning alerts (removed stories, unusual growth)")
	fmt.Println("      Human-readable output by default, use --robot-drift for JSON.")
	fmt.Println("")
	fmt.Println("  Drift Detection Configuration (.specdeck/drift.yaml)")
	fmt.Println("      Customize drift detection thresholds:")
	fmt.Println("      - story_growth_threshold: 10   # Warn if 10+ more stories")
	fmt.Println("      - edge_growth_pct: 50          # Warn if edges +50%")
	fmt.Println("")
	fmt.Println("  --agents-md")
	fmt.Println("      Add sd usage instructions to the project's AGENTS.md so")
	fmt.Println("      coding agents reach for the robot commands, not the TUI.")
	fmt.Println("")
	fmt.Println("  --export-md <file>")
	fmt.Println("      Generates a readable status report with a Mermaid.js dependency")
	fmt.Println("      graph and a per-epic breakdown.")
	fmt.Println("")
	fmt.Println("  --export-svg <file> / --export-png <file>")
	fmt.Println("      Renders the fully expanded tree as a shareable image.")
	fmt.Println("")
	fmt.Println("  --workspace CONFIG")
	fmt.Println("      Load every spec listed in a workspace configuration file and")
	fmt.Println("      print per-spec entity counts.")
	fmt.Println("      Path: typically .specdeck/workspace.yaml")
	fmt.Println("")
	fmt.Println("  --project DIR / --spec FILE / --root-id ID")
	fmt.Println("      Select which spec to operate on. Without flags, sd walks up")
	fmt.Println("      from the working directory looking for a .specdeck/ folder.")
	fmt.Println("")
	fmt.Println("  --init")
	fmt.Println("      Create an empty .specdeck/spec.json in the project directory.")
}
