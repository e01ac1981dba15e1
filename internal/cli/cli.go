package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/copysaver/copysaver/internal/clipboard"
	"github.com/copysaver/copysaver/internal/clipboard/sysboard"
	"github.com/copysaver/copysaver/internal/config"
	"github.com/copysaver/copysaver/internal/history"
	"github.com/copysaver/copysaver/internal/projection"
	"github.com/copysaver/copysaver/internal/store"
	"github.com/copysaver/copysaver/internal/store/dbstore"
	"github.com/copysaver/copysaver/internal/tui"
)

// CLI handles the command-line interface
type CLI struct {
	service   *history.Service
	store     store.Store
	clipboard clipboard.Clipboard
	config    *config.Config
	configMgr *config.ConfigManager
}

// New creates a new CLI instance
func New() (*CLI, error) {
	return NewWithArgs(nil)
}

// NewWithArgs creates a new CLI instance with custom arguments for
// config and database paths.
func NewWithArgs(args *Args) (*CLI, error) {
	var configMgr *config.ConfigManager
	var err error
	if args != nil && args.ConfigPath != nil {
		configMgr = config.NewConfigManagerWithPath(*args.ConfigPath)
	} else {
		configMgr, err = config.NewConfigManager()
		if err != nil {
			return nil, err
		}
	}

	cfg, err := configMgr.Load()
	if err != nil {
		return nil, err
	}

	// Database path precedence: flag > config > default
	var dbPath string
	switch {
	case args != nil && args.DBPath != nil:
		dbPath = *args.DBPath
	case cfg.HistoryLocation != "":
		dbPath = cfg.HistoryLocation
	default:
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		dbPath = filepath.Join(homeDir, ".config", "copysaver", "copysaver.db")
	}

	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	sqliteStore, err := dbstore.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create database store: %w", err)
	}

	service := history.New(sqliteStore,
		history.WithMaxItems(cfg.MaxItems),
		history.WithNotifier(history.NotifierFunc(func(event history.Event) {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", event.Type, event.Message)
		})),
	)

	return &CLI{
		service:   service,
		store:     sqliteStore,
		clipboard: sysboard.New(),
		config:    cfg,
		configMgr: configMgr,
	}, nil
}

// Close releases the underlying store.
func (c *CLI) Close() error {
	return c.store.Close()
}

// Execute runs the CLI command based on parsed arguments
func (c *CLI) Execute(args *Args) error {
	if err := args.Validate(); err != nil {
		return err
	}

	ctx := context.Background()

	switch {
	case args.Capture != nil:
		return c.executeCapture(ctx, args.Capture)
	case args.Watch != nil:
		return c.executeWatch(args.Watch)
	case args.List != nil:
		return c.executeList(ctx, args.List)
	case args.Pin != nil:
		return c.service.TogglePin(ctx, args.Pin.ID)
	case args.Label != nil:
		return c.service.AssignLabel(ctx, args.Label.ID, args.Label.Label)
	case args.Save != nil:
		return c.service.SaveToCategory(ctx, args.Save.ID, args.Save.Category)
	case args.Unsave != nil:
		return c.service.Unsave(ctx, args.Unsave.ID)
	case args.Trash != nil:
		return c.service.ToggleTrash(ctx, args.Trash.IDs)
	case args.Restore != nil:
		return c.service.Restore(ctx, args.Restore.IDs)
	case args.Delete != nil:
		return c.executeDelete(ctx, args.Delete)
	case args.Clear != nil:
		return c.executeClear(ctx, args.Clear)
	case args.Category != nil:
		return c.executeCategory(ctx, args.Category)
	case args.Insights != nil:
		return c.executeInsights(ctx)
	case args.Browse != nil:
		return c.launchTUI(ctx, args.Browse.Trash)
	case args.Config != nil:
		return c.executeConfig(args.Config)
	default:
		return c.launchTUI(ctx, false)
	}
}

// executeCapture handles the 'copysaver capture' command
func (c *CLI) executeCapture(ctx context.Context, cmd *CaptureCmd) error {
	var text string
	switch {
	case cmd.Clipboard:
		read, err := c.clipboard.Read()
		if err != nil {
			return fmt.Errorf("failed to read clipboard: %w", err)
		}
		text = read
	case cmd.Text != nil:
		text = *cmd.Text
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	}

	hostname := cmd.Hostname
	if hostname == "" {
		hostname = c.config.DefaultHostname
	}

	record, err := c.service.Capture(ctx, history.CaptureInput{
		Text:      text,
		URL:       cmd.URL,
		Hostname:  hostname,
		PageTitle: cmd.Title,
		Favicon:   cmd.Favicon,
	})
	if err != nil {
		return fmt.Errorf("failed to capture: %w", err)
	}

	fmt.Printf("Captured %s: %s\n", record.ID, previewLabel(record.Label))
	return nil
}

// executeWatch handles the 'copysaver watch' command. It captures every
// clipboard change until interrupted.
func (c *CLI) executeWatch(_ *WatchCmd) error {
	if !c.clipboard.IsSupported() {
		return fmt.Errorf("system clipboard is not available")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Watching clipboard. Press Ctrl+C to stop.")

	for text := range c.clipboard.Watch(ctx) {
		record, err := c.service.Capture(ctx, history.CaptureInput{
			Text:     text,
			Hostname: c.config.DefaultHostname,
		})
		switch {
		case err == nil:
			fmt.Printf("Captured %s: %s\n", record.ID, previewLabel(record.Label))
		case isIgnorableCapture(err):
			// Empty selection or full history; already surfaced.
		default:
			return fmt.Errorf("failed to capture: %w", err)
		}
	}
	return nil
}

// executeList handles the 'copysaver list' command
func (c *CLI) executeList(ctx context.Context, cmd *ListCmd) error {
	records, err := c.service.Records(ctx)
	if err != nil {
		return err
	}

	if cmd.Trash {
		trashed := projection.Trashed(records)
		if len(trashed) == 0 {
			fmt.Println("Trash is empty")
			return nil
		}
		fmt.Println("Trash:")
		for _, record := range trashed {
			printRecord(record)
		}
		return nil
	}

	visible := projection.Active(records)
	visible = projection.FilterBySearchText(visible, cmd.Search)
	if cmd.Pinned {
		visible, _ = projection.PartitionPinned(visible)
	}

	if len(visible) == 0 {
		fmt.Println("No records")
		return nil
	}

	if cmd.ByCategory {
		categories, err := c.service.Categories(ctx)
		if err != nil {
			return err
		}
		grouped := projection.GroupByCategory(visible, categories)
		for _, category := range categories {
			bucket := grouped[category.Name]
			if len(bucket) == 0 {
				continue
			}
			fmt.Printf("%s:\n", category.Name)
			for _, record := range bucket {
				printRecord(record)
			}
		}
		return nil
	}

	grouped := projection.GroupByDate(visible)
	for _, day := range projection.DateKeys(visible) {
		fmt.Printf("%s:\n", day)
		for _, record := range grouped[day] {
			printRecord(record)
		}
	}
	return nil
}

// executeDelete handles the 'copysaver delete' command
func (c *CLI) executeDelete(ctx context.Context, cmd *DeleteCmd) error {
	if cmd.EmptyTrash {
		if err := c.service.EmptyTrash(ctx); err != nil {
			return err
		}
		fmt.Println("Trash emptied")
		return nil
	}
	if err := c.service.Delete(ctx, cmd.IDs); err != nil {
		return err
	}
	fmt.Printf("Deleted %d record(s)\n", len(cmd.IDs))
	return nil
}

// executeClear handles the 'copysaver clear' command
func (c *CLI) executeClear(ctx context.Context, cmd *ClearCmd) error {
	err := c.service.ClearHistory(ctx, history.ClearInput{
		Range:     history.TimeRange(cmd.Range),
		ToTrash:   cmd.ToTrash,
		KeepSaved: cmd.KeepSaved,
	})
	if err != nil {
		return err
	}
	if cmd.ToTrash {
		fmt.Println("Matching records moved to trash")
	} else {
		fmt.Println("Matching records deleted")
	}
	return nil
}

// executeCategory handles the 'copysaver category' command
func (c *CLI) executeCategory(ctx context.Context, cmd *CategoryCmd) error {
	switch {
	case cmd.Create != nil:
		category, err := c.service.CreateCategory(ctx, cmd.Create.Name)
		if err != nil {
			return err
		}
		fmt.Printf("Created category %s (%s)\n", category.Name, category.ID)
		return nil
	case cmd.Delete != nil:
		if err := c.service.DeleteCategory(ctx, cmd.Delete.Name); err != nil {
			return err
		}
		fmt.Printf("Deleted category %s\n", cmd.Delete.Name)
		return nil
	default:
		return c.executeCategoryList(ctx)
	}
}

// executeCategoryList prints every category with its member count.
func (c *CLI) executeCategoryList(ctx context.Context) error {
	categories, err := c.service.Categories(ctx)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		fmt.Println("No categories")
		return nil
	}

	records, _, err := c.service.Snapshot(ctx)
	if err != nil {
		return err
	}
	grouped := projection.GroupByCategory(projection.Active(records), categories)

	for _, category := range categories {
		fmt.Printf("  %s (%d)\n", category.Name, len(grouped[category.Name]))
	}
	return nil
}

// executeInsights handles the 'copysaver insights' command
func (c *CLI) executeInsights(ctx context.Context) error {
	records, categories, err := c.service.Snapshot(ctx)
	if err != nil {
		return err
	}

	stats := projection.Summarize(records, categories)

	fmt.Printf("Total:        %d\n", stats.Total)
	fmt.Printf("Pinned:       %d\n", stats.Pinned)
	fmt.Printf("Trashed:      %d\n", stats.Trashed)
	if stats.TopCategory != nil {
		fmt.Printf("Top category: %s\n", stats.TopCategory.Name)
	} else {
		fmt.Printf("Top category: -\n")
	}
	if stats.TopSource != nil {
		fmt.Printf("Top source:   %s\n", stats.TopSource.Hostname)
	} else {
		fmt.Printf("Top source:   -\n")
	}
	return nil
}

// executeConfig handles the 'copysaver config' command
func (c *CLI) executeConfig(cmd *ConfigCmd) error {
	switch {
	case cmd.Get != nil:
		value, err := c.configMgr.Get(cmd.Get.Key)
		if err != nil {
			return fmt.Errorf("failed to get config value: %w", err)
		}
		fmt.Printf("%s\n", value)
		return nil
	case cmd.Set != nil:
		if err := c.configMgr.Update(cmd.Set.Key, cmd.Set.Value); err != nil {
			return fmt.Errorf("failed to set config value: %w", err)
		}
		fmt.Printf("Set %s = %s\n", cmd.Set.Key, cmd.Set.Value)
		return nil
	case cmd.List != nil:
		values, err := c.configMgr.List()
		if err != nil {
			return fmt.Errorf("failed to list config values: %w", err)
		}
		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		fmt.Printf("Current configuration:\n")
		for _, key := range keys {
			fmt.Printf("  %s = %s\n", key, values[key])
		}
		return nil
	default:
		return fmt.Errorf("no config subcommand specified")
	}
}

// launchTUI starts the interactive browser.
func (c *CLI) launchTUI(ctx context.Context, trash bool) error {
	model, err := tui.NewModel(ctx, c.service, c.clipboard, trash)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}

	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err = program.Run()
	return err
}

// printRecord prints one record line for the list views.
func printRecord(record store.Record) {
	markers := ""
	if record.Pinned {
		markers += "*"
	}
	if record.Category != nil {
		markers += "[" + record.Category.Name + "]"
	}
	host := record.Source.Hostname
	if host != "" {
		host = " (" + host + ")"
	}
	fmt.Printf("  %s %s%s %s%s\n",
		record.ID, record.Timestamp.Local().Format("15:04"), host,
		previewLabel(record.Label), markers)
}

// previewLabel collapses a label to one short display line.
func previewLabel(label string) string {
	line := label
	if idx := strings.IndexByte(line, '\n'); idx >= 0 {
		line = line[:idx]
	}
	line = strings.TrimSpace(line)
	const maxLen = 60
	if runes := []rune(line); len(runes) > maxLen {
		line = string(runes[:maxLen-3]) + "..."
	}
	return line
}

// isIgnorableCapture reports whether a capture error is an expected
// rejection rather than a failure: empty selections and the capacity
// guard both leave the watcher running.
func isIgnorableCapture(err error) bool {
	return errors.Is(err, history.ErrEmptyCapture) || errors.Is(err, history.ErrAtCapacity)
}
