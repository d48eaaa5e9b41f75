// surveyctl takes a survey against a running surveyuin server from the
// terminal. It drives the same session state machine the web client
// uses: duplicate check, progress resume, per-answer saves, guarded
// submit.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/c1nnmnz/surveyuin-team-sub000/internal/backend"
	"github.com/c1nnmnz/surveyuin-team-sub000/internal/config"
	"github.com/c1nnmnz/surveyuin-team-sub000/internal/storage"
	"github.com/c1nnmnz/surveyuin-team-sub000/internal/survey"
)

func main() {
	cfg := config.New()

	var (
		baseURL   = flag.String("url", cfg.BackendURL(), "base URL of the survey server")
		serviceID = flag.String("service", "", "service unit id to survey")
		userID    = flag.String("user", "", "user id (from login)")
		token     = flag.String("token", "", "bearer token (from login)")
		statePath = flag.String("state", defaultStatePath(), "sqlite file for local progress")
		reset     = flag.Bool("reset", false, "discard saved progress before starting")
	)
	flag.Parse()

	if *baseURL == "" || *serviceID == "" {
		flag.Usage()
		os.Exit(2)
	}

	kv, err := openProgressStore(*statePath)
	if err != nil {
		log.Fatalf("open progress store: %v", err)
	}
	progress := survey.NewProgressService(kv)

	client := backend.NewClient(*baseURL)
	if *token != "" {
		client.SetToken(*token)
	}

	session := survey.NewSession(client, progress, *userID, *serviceID)
	session.SetConfirmDelay(cfg.ConfirmDelay())
	ctx := context.Background()
	if err := session.Begin(ctx); err != nil {
		log.Fatalf("start session: %v", err)
	}

	in := bufio.NewScanner(os.Stdin)

	if session.State() == survey.StateWarningShown {
		prev := session.PreviousResponse()
		fmt.Printf("You already submitted a response for %s on %s (overall score %d).\n",
			session.Service().Name, prev.RecordedAt().Format("2006-01-02"), prev.Scores.Overall)
		if !confirm(in, "Fill the survey again? Previous local progress will be discarded") {
			return
		}
		if err := session.FillAgain(ctx); err != nil {
			log.Fatalf("restart survey: %v", err)
		}
	}

	if *reset {
		if err := session.Reset(); err != nil {
			log.Fatalf("reset progress: %v", err)
		}
	}

	runForm(in, session)

	resp, err := session.Submit(ctx)
	if err != nil {
		log.Fatalf("submit: %v", err)
	}
	fmt.Printf("\nSubmitted. Scores: corruption %d, quality %d, integrity %d, overall %d\n",
		resp.Scores.CorruptionPerception, resp.Scores.ServiceQuality,
		resp.Scores.SurveyIntegrity, resp.Scores.Overall)
	fmt.Printf("Next: %s\n", session.Destination())
}

func runForm(in *bufio.Scanner, session *survey.Session) {
	answered, total, percent := session.Progress()
	if answered > 0 {
		fmt.Printf("Resuming: %d of %d answered (%d%%).\n", answered, total, percent)
	}
	saved := session.Answers()
	for _, q := range survey.Catalog {
		if _, done := saved[q.ID]; done {
			continue
		}
		askQuestion(in, session, q)
	}
}

func askQuestion(in *bufio.Scanner, session *survey.Session, q *survey.Question) {
	fmt.Printf("\n%s\n", q.Text)
	for _, opt := range q.Options {
		fmt.Printf("  [%s] %s\n", opt.Value, opt.Label)
	}
	for {
		fmt.Print("> ")
		if !in.Scan() {
			log.Fatalf("input closed before the survey was complete")
		}
		value := strings.TrimSpace(in.Text())
		if err := session.Answer(q.ID, value); err != nil {
			fmt.Printf("%v\n", err)
			continue
		}
		return
	}
}

func confirm(in *bufio.Scanner, prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	if !in.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(in.Text()))
	return answer == "y" || answer == "yes"
}

func defaultStatePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "surveyuin-progress.db"
	}
	return home + "/.surveyuin/progress.db"
}

func openProgressStore(path string) (storage.KeyValueStore, error) {
	if path == "" {
		return storage.NewMemoryKV(), nil
	}
	return storage.OpenSQLiteKV(path)
}
