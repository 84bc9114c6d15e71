package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"gorm.io/gorm"

	"alfredoptarigan/interview-agent/internal/config"
	"alfredoptarigan/interview-agent/internal/models"
	"alfredoptarigan/interview-agent/internal/repositories"
	"alfredoptarigan/interview-agent/internal/services"
)

func main() {
	sqlitePath := flag.String("sqlite", "", "store sessions in this SQLite file instead of Postgres")
	exportPath := flag.String("export", "", "write the session summary to this .xlsx file")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	catalog, err := config.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		log.Fatalf("❌ Failed to load interview catalog: %v", err)
	}

	var db *gorm.DB
	if *sqlitePath != "" {
		db, err = config.InitSQLiteDatabase(*sqlitePath)
	} else {
		db, err = config.InitDatabase(cfg)
	}
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}

	ctx := context.Background()
	evaluators, err := services.BuildEvaluators(ctx, cfg, catalog)
	if err != nil {
		log.Fatalf("❌ Failed to initialize evaluators: %v", err)
	}

	gate, err := services.NewRoundGate(repositories.NewSessionStore(db), evaluators, catalog, nil)
	if err != nil {
		log.Fatalf("❌ Failed to initialize round gate: %v", err)
	}

	iv := &interview{
		ctx:     ctx,
		in:      bufio.NewReader(os.Stdin),
		gate:    gate,
		catalog: catalog,
		parser:  services.NewDocumentParser(),
	}

	sessionID, err := iv.run()
	if err != nil {
		color.Red("Interview stopped: %v", err)
		if sessionID == nil {
			os.Exit(1)
		}
	}

	summary, err := gate.GetSessionSummary(ctx, *sessionID)
	if err != nil {
		log.Fatalf("❌ Failed to load session summary: %v", err)
	}
	printSummary(summary)

	if *exportPath != "" {
		if err := exportSummary(*exportPath, summary); err != nil {
			log.Fatalf("❌ Failed to export summary: %v", err)
		}
		color.Green("Summary written to %s", *exportPath)
	}
}

type interview struct {
	ctx     context.Context
	in      *bufio.Reader
	gate    services.RoundGate
	catalog *config.Catalog
	parser  services.DocumentParser
	role    string
	eof     bool
}

// errStopped means the candidate chose not to retry a failed round.
var errStopped = errors.New("candidate did not retry")

// run walks one candidate through the rounds. The session id is returned as
// soon as a session exists, even when a later round stops the interview.
func (iv *interview) run() (*uuid.UUID, error) {
	color.Cyan("\n=== Candidate Interview ===")

	name := iv.prompt("Candidate name: ")
	iv.role = iv.chooseRole()

	session, err := iv.gate.StartSession(iv.ctx, name, iv.role)
	if err != nil {
		return nil, err
	}
	id := session.ID
	color.Green("Session %s started for %s", id, iv.role)

	steps := []struct {
		round models.Round
		read  func() (services.RoundInput, error)
	}{
		{models.RoundResumeScreening, iv.readResume},
		{models.RoundTechnical, iv.readChecklist},
		{models.RoundScenario, iv.readScenario},
	}

	for _, step := range steps {
		if err := iv.playRound(id, step.round, step.read); err != nil {
			if errors.Is(err, errStopped) {
				return &id, nil
			}
			return &id, err
		}
	}

	return &id, nil
}

// playRound repeats a round until it passes, the candidate stops, or the
// final round is recorded.
func (iv *interview) playRound(id uuid.UUID, round models.Round, read func() (services.RoundInput, error)) error {
	color.Cyan("\n--- %s: %s ---", round.Owner(), round.Question(iv.role))

	for {
		input, err := read()
		if iv.eof {
			return errStopped
		}
		if err != nil {
			color.Red("%v", err)
			continue
		}

		outcome, err := iv.gate.SubmitRound(iv.ctx, id, round, input)
		if errors.Is(err, services.ErrValidation) {
			color.Red("%v", err)
			continue
		}
		if err != nil {
			return err
		}

		printOutcome(outcome)
		if outcome.Completed || outcome.Result.Passed {
			return nil
		}
		if !iv.confirm("Retry this round? [y/N]: ") {
			return errStopped
		}
	}
}

func (iv *interview) readResume() (services.RoundInput, error) {
	path := iv.prompt(fmt.Sprintf("Resume file (%s): ", strings.Join(services.SupportedResumeExtensions, ", ")))
	text, err := iv.parser.ExtractText(path)
	if err != nil {
		return services.RoundInput{}, err
	}
	return services.RoundInput{ResumeText: text}, nil
}

func (iv *interview) readChecklist() (services.RoundInput, error) {
	answers := make(map[string]models.TechnicalAnswer, len(iv.catalog.Technical.Questions))
	for _, q := range iv.catalog.Technical.Questions {
		answers[q.ID] = models.TechnicalAnswer{Correct: iv.confirm(q.Prompt + "? [y/N]: ")}
	}
	return services.RoundInput{Answers: answers}, nil
}

func (iv *interview) readScenario() (services.RoundInput, error) {
	fmt.Println(iv.catalog.Scenario.Question)
	fmt.Println("(finish with an empty line)")

	var lines []string
	for {
		line, err := iv.in.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if err != nil {
			iv.eof = len(lines) == 0 && line == ""
		}
		if line == "" || err != nil {
			if line != "" {
				lines = append(lines, line)
			}
			break
		}
		lines = append(lines, line)
	}
	return services.RoundInput{ScenarioText: strings.Join(lines, "\n")}, nil
}

func (iv *interview) chooseRole() string {
	for {
		for i, name := range iv.catalog.RoleNames() {
			fmt.Printf("%d. %s\n", i+1, name)
		}
		choice, err := strconv.Atoi(iv.prompt("Role: "))
		names := iv.catalog.RoleNames()
		if err == nil && choice >= 1 && choice <= len(names) {
			return names[choice-1]
		}
		if iv.eof {
			log.Fatal("❌ No role chosen")
		}
		color.Red("Invalid choice. Please try again.")
	}
}

func (iv *interview) prompt(label string) string {
	fmt.Print(label)
	line, err := iv.in.ReadString('\n')
	if err != nil && line == "" {
		iv.eof = true
	}
	return strings.TrimSpace(line)
}

func (iv *interview) confirm(label string) bool {
	answer := strings.ToLower(iv.prompt(label))
	return answer == "y" || answer == "yes"
}

func printOutcome(outcome *services.RoundOutcome) {
	r := outcome.Result
	line := fmt.Sprintf("Score %.2f (threshold %.0f), attempt %d", r.Score, r.Threshold, r.Attempt)
	if r.Passed {
		color.Green("PASSED: %s", line)
	} else {
		color.Red("FAILED: %s", line)
	}
	if outcome.Advanced {
		color.Yellow("Moving on to round %d", int(outcome.Session.Stage))
	}
}

func printSummary(summary *services.SessionSummary) {
	color.Yellow("\nFull Metrics")

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Round", "Owner", "Attempt", "Score", "Threshold", "Passed"})
	for _, round := range models.Rounds() {
		for _, r := range summary.Rounds[round] {
			table.Append([]string{
				strconv.Itoa(int(r.RoundNo)),
				r.Owner,
				strconv.Itoa(r.Attempt),
				fmt.Sprintf("%.2f", r.Score),
				fmt.Sprintf("%.0f", r.Threshold),
				strconv.FormatBool(r.Passed),
			})
		}
	}
	table.Render()

	switch decision := summary.FinalDecision(); {
	case decision == nil:
		color.Yellow("Verdict: none (%s)", summary.State())
	case *decision == models.DecisionHire:
		color.Green("Verdict: %s", *decision)
	default:
		color.Red("Verdict: %s", *decision)
	}
}

func exportSummary(path string, summary *services.SessionSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := services.ExportSummary(f, summary); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
