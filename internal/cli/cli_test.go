package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"futur-genie-quiz/internal/config"
	"futur-genie-quiz/internal/domain"
	"futur-genie-quiz/internal/infra/sqlite"
	"futur-genie-quiz/internal/logging"
)

const fixtures = `
quizzes:
  - id: additions-ce1
    title: Les additions
    questions:
      - id: q1
        prompt: Combien font 2 + 2 ?
        choices: [{id: a, text: "3"}, {id: b, text: "4"}]
        answer_keys: [b]
      - id: q2
        prompt: Combien font 3 + 4 ?
        choices: [{id: a, text: "7"}, {id: b, text: "8"}]
        answer_keys: [a]
`

func writeSQLiteConfig(t *testing.T) (configFile, dbPath string) {
	t.Helper()
	dir := t.TempDir()
	dbPath = filepath.Join(dir, "quiz.db")
	fixturePath := filepath.Join(dir, "quizzes.yaml")
	if err := os.WriteFile(fixturePath, []byte(fixtures), 0o600); err != nil {
		t.Fatalf("write fixtures: %v", err)
	}
	configFile = filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf("storage: sqlite\nlog:\n  level: error\nsqlite:\n  path: %s\nquiz:\n  fixtures: %s\n", dbPath, fixturePath)
	if err := os.WriteFile(configFile, []byte(cfg), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return configFile, dbPath
}

func TestSeedAssignAndStatsWithSQLite(t *testing.T) {
	ctx := context.Background()
	configFile, dbPath := writeSQLiteConfig(t)

	if err := runSeed(ctx, configFile, ""); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := runAssign(ctx, configFile, "additions-ce1", []string{"u1"}); err != nil {
		t.Fatalf("assign failed: %v", err)
	}

	store, err := sqlite.NewStore(dbPath)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	quiz, err := store.LoadQuiz(ctx, "additions-ce1")
	if err != nil || len(quiz.Questions) != 2 {
		t.Fatalf("expected seeded quiz, got %+v (%v)", quiz, err)
	}
	if ok, _ := store.CanTake(ctx, "u1", "additions-ce1"); !ok {
		t.Fatalf("expected u1 to be assigned")
	}
	completed := time.Unix(1790000000, 0).UTC()
	for i, score := range []int{2, 1} {
		err := store.Submit(ctx, domain.Submission{
			ID:              fmt.Sprintf("sub-%d", i),
			QuizID:          "additions-ce1",
			RespondentID:    fmt.Sprintf("u%d", i),
			Answers:         map[string][]string{},
			Score:           score,
			Total:           2,
			DurationSeconds: 30,
			CompletedAt:     completed.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	_ = store.Close()

	var out bytes.Buffer
	if err := runStats(ctx, configFile, "additions-ce1", &out); err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	var stats domain.QuizStats
	if err := json.Unmarshal(out.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats %q: %v", out.String(), err)
	}
	if stats.Attempts != 2 || stats.PerfectCount != 1 || stats.BestPercent != 100 || stats.WorstPercent != 50 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestMemoryBackendRespectsClosedAccess(t *testing.T) {
	ctx := context.Background()
	cfg, err := config.Parse([]byte("storage: memory\naccess:\n  open: false\n  assignments:\n    quiz-1: [u1]\n"))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	backend, err := openBackend(ctx, cfg, logging.Discard())
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	defer backend.close()

	if ok, err := backend.policy.CanTake(ctx, "stranger", "quiz-1"); ok || err != nil {
		t.Fatalf("unassigned respondent must be denied, got %v (%v)", ok, err)
	}
	if ok, _ := backend.policy.CanTake(ctx, "u1", "quiz-1"); !ok {
		t.Fatalf("assigned respondent must be allowed")
	}

	cfg, err = config.Parse([]byte("storage: memory\naccess:\n  open: false\n"))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	backend, err = openBackend(ctx, cfg, logging.Discard())
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	if ok, _ := backend.policy.CanTake(ctx, "anyone", "quiz-1"); ok {
		t.Fatalf("closed access without assignments must deny everyone")
	}

	cfg, _ = config.Parse([]byte("storage: memory\naccess:\n  open: true\n"))
	backend, _ = openBackend(ctx, cfg, logging.Discard())
	if ok, _ := backend.policy.CanTake(ctx, "anyone", "quiz-1"); !ok {
		t.Fatalf("open access must allow everyone")
	}
}

func TestStatsRejectsMemoryStorage(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configFile, []byte("storage: memory\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := runStats(context.Background(), configFile, "quiz-1", &bytes.Buffer{}); err == nil {
		t.Fatalf("expected memory storage to be rejected")
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"start", "migrate", "seed", "assign", "stats"} {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Fatalf("expected %s subcommand, got %v (%v)", name, sub, err)
		}
	}
}
