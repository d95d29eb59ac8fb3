package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"toolscope/config"
	"toolscope/internal/feed"
	"toolscope/internal/reconcile"
	"toolscope/internal/transcript"
	"toolscope/internal/viewer"
	"toolscope/pkg/db"
	"toolscope/pkg/migration"
	"toolscope/version"
)

var (
	flagThread string
	flagConfig string
)

var rootCmd = &cobra.Command{
	Use:   "toolscope",
	Short: "Live tool-call viewer for agent transcripts",
	Long: `toolscope reconstructs the sequence of tool invocations an agent issued,
pairing each call with its result as both stream in, and lets you page
through the reconciled list while the run is still going.`,
}

var watchCmd = &cobra.Command{
	Use:   "watch <transcript.jsonl>",
	Short: "Follow a live transcript file in the interactive viewer",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		engine := newEngine(cfg)
		defer engine.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		path := args[0]
		tailer := transcript.NewTailer(path)
		session := feed.New(engine, fileHistory{path: path}, tailer)

		go func() {
			if err := tailer.Run(ctx); err != nil && ctx.Err() == nil {
				log.Printf("tail %s: %v", path, err)
			}
		}()
		go func() {
			if err := session.Run(ctx, flagThread); err != nil && ctx.Err() == nil {
				log.Printf("feed: %v", err)
			}
		}()

		if err := viewer.Run(ctx, engine, threadLabel(path)); err != nil && ctx.Err() == nil {
			log.Fatal(err)
		}
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay <transcript.jsonl>",
	Short: "Reconcile a finished transcript and print the tool-call list",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		engine := newEngine(cfg)
		defer engine.Close()

		session := feed.New(engine, fileHistory{path: args[0]}, nil)
		if err := session.Run(cmd.Context(), flagThread); err != nil {
			log.Fatalf("replay: %v", err)
		}

		for i, rec := range engine.ToolCalls() {
			status := "streaming"
			if rec.Completed() {
				status = "ok"
				if rec.Result != nil && !rec.Result.Success {
					status = "failed"
				}
			}
			arguments, _ := json.Marshal(rec.Arguments)
			fmt.Printf("%3d  %-9s  %-24s  %s\n", i, status, rec.FunctionName, arguments)
		}

		stats := engine.Stats()
		fmt.Printf("\n%d events, %d calls, %d results", stats.EventsApplied, stats.CallsObserved, stats.ResultsObserved)
		if stats.OrphansEvicted > 0 {
			fmt.Printf(", %d orphaned results dropped", stats.OrphansEvicted)
		}
		fmt.Println()
	},
}

var importCmd = &cobra.Command{
	Use:   "import <transcript.jsonl>",
	Short: "Load a transcript file into the local store",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		dbPath := cfg.DatabasePath
		if dbPath == "" {
			var err error
			dbPath, err = config.GetDatabasePath()
			if err != nil {
				log.Fatalf("resolve database path: %v", err)
			}
		}

		store, err := db.Open(dbPath)
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
		defer store.Close()

		if err := migration.NewRunner(store.Write).Run(); err != nil {
			log.Fatalf("migrate: %v", err)
		}

		msgs, err := transcript.ReadFile(args[0])
		if err != nil {
			log.Fatalf("read transcript: %v", err)
		}

		svc := transcript.NewSQLiteService(store.Write)
		imported := 0
		for _, msg := range msgs {
			if flagThread != "" && msg.ThreadID != flagThread {
				continue
			}
			msg.MetadataText = normalizeMetadata(msg.MetadataText)
			if err := svc.Put(cmd.Context(), msg); err != nil {
				log.Fatalf("store message %s: %v", msg.ID, err)
			}
			imported++
		}
		fmt.Printf("imported %d messages into %s\n", imported, dbPath)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the toolscope version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Get())
	},
}

// normalizeMetadata fixes up exporter quirks before storage: some writers
// emit native call arguments as a JSON string instead of an object.
func normalizeMetadata(metadata string) string {
	calls := gjson.Get(metadata, "tool_calls")
	if !calls.IsArray() {
		return metadata
	}
	out := metadata
	calls.ForEach(func(key, entry gjson.Result) bool {
		args := entry.Get("arguments")
		if args.Type != gjson.String {
			return true
		}
		if !json.Valid([]byte(args.String())) {
			return true
		}
		path := fmt.Sprintf("tool_calls.%d.arguments", key.Int())
		if patched, err := sjson.SetRaw(out, path, args.String()); err == nil {
			out = patched
		}
		return true
	})
	return out
}

// fileHistory serves a JSONL file as the backfill source.
type fileHistory struct {
	path string
}

func (h fileHistory) List(_ context.Context, threadID string) ([]transcript.RawMessage, error) {
	msgs, err := transcript.ReadFile(h.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	if threadID == "" {
		return msgs, nil
	}
	filtered := msgs[:0]
	for _, msg := range msgs {
		if msg.ThreadID == "" || msg.ThreadID == threadID {
			filtered = append(filtered, msg)
		}
	}
	return filtered, nil
}

func loadConfig() *config.Config {
	path := flagConfig
	if path == "" {
		var err error
		path, err = config.GetConfigFile()
		if err != nil {
			log.Fatalf("resolve config path: %v", err)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	return cfg
}

func newEngine(cfg *config.Config) *reconcile.Engine {
	return reconcile.New(
		reconcile.WithHiddenTools(cfg.HiddenTools),
		reconcile.WithResultBufferCap(cfg.ResultBufferCap),
	)
}

func threadLabel(path string) string {
	if flagThread != "" {
		return flagThread
	}
	return path
}

func main() {
	rootCmd.PersistentFlags().StringVar(&flagThread, "thread", "", "only reconcile messages for this thread id")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to config.yaml")
	rootCmd.AddCommand(watchCmd, replayCmd, importCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
