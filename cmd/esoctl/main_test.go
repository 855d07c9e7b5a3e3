package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/esolog/logpipeline/internal/config"
	"github.com/esolog/logpipeline/internal/index"
	"github.com/esolog/logpipeline/internal/store"
)

func newTestConfig(storeRoot string) *config.Config {
	cfg := config.New()
	cfg.Storage.LogStoreRoot = storeRoot
	return cfg
}

// sampleLog is the minimal BEGIN_LOG/BEGIN_COMBAT/COMBAT_EVENT/END_COMBAT/
// END_LOG sequence exercised by internal/logsession's own tests, reused
// here to drive the CLI subcommands end-to-end.
const sampleLog = "0,BEGIN_LOG,14,1700000000000,1,NA,EN,10.0\n" +
	"1,ZONE_CHANGED,10,Vault,VETERAN\n" +
	"100,BEGIN_COMBAT\n" +
	"1000,COMBAT_EVENT,DAMAGE,1,1,100,0,1,7,1,1000/1000,2000/2000,3000/3000,0/0,1.0,2.0,3.0,2,500/1000,600/600,700/700,0/0,4.0,5.0,6.0\n" +
	"2000,END_COMBAT\n" +
	"3000,END_LOG\n"

func newTestApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	storeOpts := store.DefaultOptions()
	ix := index.New(dir, index.Options{Store: storeOpts})
	t.Cleanup(func() { ix.Close() })
	if err := ix.Refresh(context.Background()); err != nil {
		t.Fatalf("initial refresh: %v", err)
	}

	out, err := os.CreateTemp(t.TempDir(), "esoctl-out-*")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { out.Close() })

	cfg := newTestConfig(dir)
	return &App{Ctx: context.Background(), Cfg: cfg, Index: ix, StoreOpts: storeOpts, Stdout: out}
}

func readBack(t *testing.T, f *os.File) string {
	t.Helper()
	if _, err := f.Seek(0, 0); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(f.Name())
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestImportThenSessionsThenFights(t *testing.T) {
	app := newTestApp(t)

	logPath := filepath.Join(t.TempDir(), "combat.log")
	if err := os.WriteFile(logPath, []byte(sampleLog), 0o644); err != nil {
		t.Fatal(err)
	}

	importCmd := &RunImportCmd{Paths: []string{logPath}}
	if err := importCmd.Run(app); err != nil {
		t.Fatalf("import: %v", err)
	}
	out := readBack(t, app.Stdout)
	if !strings.Contains(out, "1 session(s)") {
		t.Errorf("import output = %q, want a 1 session(s) summary", out)
	}

	sessions := app.Index.Sessions()
	if len(sessions) != 1 {
		t.Fatalf("sessions = %d, want 1", len(sessions))
	}
	sessionID := sessions[0].ID

	sessCmd := &SessionsCmd{}
	if err := sessCmd.Run(app); err != nil {
		t.Fatalf("sessions cmd: %v", err)
	}

	fights := app.Index.FightsForSession(sessionID)
	if len(fights) != 1 {
		t.Fatalf("fights = %d, want 1", len(fights))
	}

	fightsCmd := &FightsCmd{SessionID: sessionID}
	if err := fightsCmd.Run(app); err != nil {
		t.Fatalf("fights cmd: %v", err)
	}

	aggCmd := &QueryAggregatesCmd{queryFilterFlags: queryFilterFlags{FightID: fights[0].ID}}
	if err := aggCmd.Run(app); err != nil {
		t.Fatalf("query aggregates: %v", err)
	}

	rangeCmd := &QueryRangeCmd{FightID: fights[0].ID, FromMs: 0, ToMs: 2000}
	if err := rangeCmd.Run(app); err != nil {
		t.Fatalf("query range: %v", err)
	}
}

func TestImportRejectsUnknownPath(t *testing.T) {
	app := newTestApp(t)
	importCmd := &RunImportCmd{Paths: []string{filepath.Join(t.TempDir(), "missing.log")}}
	if err := importCmd.Run(app); err == nil {
		t.Error("expected an error importing a non-existent path")
	}
}
