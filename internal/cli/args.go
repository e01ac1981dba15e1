package cli

import (
	"fmt"
	"strings"

	"github.com/copysaver/copysaver/internal/history"
)

// Args represents the top-level command structure
type Args struct {
	Capture  *CaptureCmd  `arg:"subcommand:capture" help:"Capture text into the history"`
	Watch    *WatchCmd    `arg:"subcommand:watch" help:"Watch the system clipboard and capture every copy"`
	List     *ListCmd     `arg:"subcommand:list" help:"List history records"`
	Pin      *PinCmd      `arg:"subcommand:pin" help:"Toggle a record's pin"`
	Label    *LabelCmd    `arg:"subcommand:label" help:"Assign a display label to a record"`
	Save     *SaveCmd     `arg:"subcommand:save" help:"Save a record under a category (pins it)"`
	Unsave   *UnsaveCmd   `arg:"subcommand:unsave" help:"Remove a record from its category and unpin it"`
	Trash    *TrashCmd    `arg:"subcommand:trash" help:"Toggle records in and out of the trash"`
	Restore  *RestoreCmd  `arg:"subcommand:restore" help:"Restore records from the trash"`
	Delete   *DeleteCmd   `arg:"subcommand:delete" help:"Permanently delete records"`
	Clear    *ClearCmd    `arg:"subcommand:clear" help:"Clear history by time range"`
	Category *CategoryCmd `arg:"subcommand:category" help:"Manage categories"`
	Insights *InsightsCmd `arg:"subcommand:insights" help:"Show history statistics"`
	Browse   *BrowseCmd   `arg:"subcommand:browse" help:"Interactive history browser"`
	Config   *ConfigCmd   `arg:"subcommand:config" help:"Manage configuration"`

	DBPath     *string `arg:"--db" help:"Custom database file path"`
	ConfigPath *string `arg:"--config" help:"Custom config file path"`
}

// CaptureCmd captures one piece of text with optional page context.
type CaptureCmd struct {
	Clipboard bool    `arg:"-c,--clipboard" help:"Read text from the system clipboard instead of stdin"`
	URL       string  `arg:"--url" help:"Originating page URL"`
	Hostname  string  `arg:"--hostname" help:"Originating hostname"`
	Title     string  `arg:"--title" help:"Originating page title"`
	Favicon   string  `arg:"--favicon" help:"Originating page favicon URL"`
	Text      *string `arg:"positional" help:"Text to capture (reads stdin if omitted)"`
}

// WatchCmd runs the clipboard watcher until interrupted.
type WatchCmd struct{}

// ListCmd lists history records with optional filtering and grouping.
type ListCmd struct {
	Search     string `arg:"-s,--search" help:"Filter by label substring (case-insensitive)"`
	ByCategory bool   `arg:"--by-category" help:"Group output by category instead of date"`
	Pinned     bool   `arg:"--pinned" help:"Only pinned records"`
	Trash      bool   `arg:"--trash" help:"Show trashed records instead of active ones"`
}

// PinCmd toggles the pin on a record.
type PinCmd struct {
	ID string `arg:"positional,required" help:"Record id"`
}

// LabelCmd sets a record's display label.
type LabelCmd struct {
	ID    string `arg:"positional,required" help:"Record id"`
	Label string `arg:"positional,required" help:"New label"`
}

// SaveCmd saves a record under a category.
type SaveCmd struct {
	ID       string `arg:"positional,required" help:"Record id"`
	Category string `arg:"positional,required" help:"Category name (created if missing)"`
}

// UnsaveCmd removes a record from its category.
type UnsaveCmd struct {
	ID string `arg:"positional,required" help:"Record id"`
}

// TrashCmd toggles records in and out of the trash.
type TrashCmd struct {
	IDs []string `arg:"positional,required" help:"Record ids"`
}

// RestoreCmd restores trashed records.
type RestoreCmd struct {
	IDs []string `arg:"positional,required" help:"Record ids"`
}

// DeleteCmd permanently deletes records, or empties the trash.
type DeleteCmd struct {
	IDs        []string `arg:"positional" help:"Record ids"`
	EmptyTrash bool     `arg:"--empty-trash" help:"Permanently delete every trashed record"`
}

// ClearCmd clears history records captured inside a time range.
type ClearCmd struct {
	Range     string `arg:"-r,--range" default:"all" help:"Time range: hour, day, week, month or all"`
	ToTrash   bool   `arg:"--to-trash" help:"Move matching records to the trash instead of deleting"`
	KeepSaved bool   `arg:"--keep-saved" help:"Skip records saved under a category"`
}

// CategoryCmd manages categories.
type CategoryCmd struct {
	Create *CategoryCreateCmd `arg:"subcommand:create" help:"Create a category"`
	List   *CategoryListCmd   `arg:"subcommand:list" help:"List categories"`
	Delete *CategoryDeleteCmd `arg:"subcommand:delete" help:"Delete a category and unsave its records"`
}

// CategoryCreateCmd creates a category.
type CategoryCreateCmd struct {
	Name string `arg:"positional,required" help:"Category name"`
}

// CategoryListCmd lists categories with member counts.
type CategoryListCmd struct{}

// CategoryDeleteCmd deletes a category.
type CategoryDeleteCmd struct {
	Name string `arg:"positional,required" help:"Category name"`
}

// InsightsCmd prints history statistics.
type InsightsCmd struct{}

// BrowseCmd launches the interactive browser.
type BrowseCmd struct {
	Trash bool `arg:"--trash" help:"Browse the trash instead of the active history"`
}

// ConfigCmd manages the configuration file.
type ConfigCmd struct {
	Get  *ConfigGetCmd  `arg:"subcommand:get" help:"Get a configuration value"`
	Set  *ConfigSetCmd  `arg:"subcommand:set" help:"Set a configuration value"`
	List *ConfigListCmd `arg:"subcommand:list" help:"List all configuration values"`
}

// ConfigGetCmd gets one configuration value.
type ConfigGetCmd struct {
	Key string `arg:"positional,required" help:"Configuration key"`
}

// ConfigSetCmd sets one configuration value.
type ConfigSetCmd struct {
	Key   string `arg:"positional,required" help:"Configuration key"`
	Value string `arg:"positional,required" help:"New value"`
}

// ConfigListCmd lists all configuration values.
type ConfigListCmd struct{}

// Description returns the program description
func (Args) Description() string {
	return "copysaver - searchable, categorizable clipboard history"
}

// Version returns the program version
func (Args) Version() string {
	return "copysaver 0.1.0"
}

// Epilogue returns additional help text
func (Args) Epilogue() string {
	return `Examples:
  # Capture operations
  echo "hello" | copysaver capture            # Capture from stdin
  copysaver capture -c --url https://a.com    # Capture clipboard with page context
  copysaver watch                             # Capture every system copy

  # Browsing
  copysaver list                              # Grouped by date
  copysaver list --by-category -s query       # Filtered, grouped by category
  copysaver browse                            # Interactive browser

  # Organizing
  copysaver save 01J... research              # Save under a category (pins)
  copysaver trash 01J...                      # Soft-delete
  copysaver clear -r week --to-trash          # Trash the last 7 days`
}

// Validate performs validation on the parsed arguments
func (args *Args) Validate() error {
	if args.Capture != nil {
		return args.Capture.Validate()
	}
	if args.Clear != nil {
		return args.Clear.Validate()
	}
	if args.Delete != nil {
		return args.Delete.Validate()
	}
	if args.Category != nil {
		return args.Category.Validate()
	}
	return nil
}

// Validate validates capture command arguments
func (c *CaptureCmd) Validate() error {
	if c.Text != nil && c.Clipboard {
		return fmt.Errorf("cannot specify both positional text and clipboard input")
	}
	return nil
}

// Validate validates clear command arguments
func (c *ClearCmd) Validate() error {
	switch history.TimeRange(c.Range) {
	case history.RangeLastHour, history.RangeLastDay, history.RangeLastWeek,
		history.RangeLastMonth, history.RangeAllTime:
		return nil
	}
	return fmt.Errorf("invalid range %q (expected hour, day, week, month or all)", c.Range)
}

// Validate validates delete command arguments
func (d *DeleteCmd) Validate() error {
	if len(d.IDs) == 0 && !d.EmptyTrash {
		return fmt.Errorf("specify record ids or --empty-trash")
	}
	if len(d.IDs) > 0 && d.EmptyTrash {
		return fmt.Errorf("cannot combine record ids with --empty-trash")
	}
	return nil
}

// Validate validates category command arguments
func (c *CategoryCmd) Validate() error {
	if c.Create == nil && c.List == nil && c.Delete == nil {
		return fmt.Errorf("no category subcommand specified")
	}
	if c.Create != nil && strings.TrimSpace(c.Create.Name) == "" {
		return fmt.Errorf("category name must not be blank")
	}
	return nil
}
