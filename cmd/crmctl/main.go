// Command crmctl runs list views against CSV or JSON files without the
// server: query prints a page as JSON, export writes a CSV, XLSX or JSON
// file named like the server's downloads.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"crm-pipeline/internal/app"
	"crm-pipeline/internal/config"
	"crm-pipeline/internal/model"
	"crm-pipeline/internal/pipeline"
	"crm-pipeline/internal/source"

	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	logLevel   string
	entity     string
	input      string
	viewPath   string
	search     string
	category   string
	status     string
	dateFilter string
	sortKey    string
	desc       bool
	page       int
	pageSize   int
	format     string
	outDir     string

	now func() time.Time
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, time.Now).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout io.Writer, now func() time.Time) *cobra.Command {
	opts := &options{now: now}

	cmd := &cobra.Command{
		Use:           "crmctl",
		Short:         "Query and export CRM list views from files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	cmd.AddCommand(entitiesCmd(opts), queryCmd(opts), exportCmd(opts))
	return cmd
}

func entitiesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List configured entities",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(cfg.Entities))
			for name := range cfg.Entities {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				ec := cfg.Entities[name]
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %-16s search=%s sort=%s\n",
					name, ec.Title, strings.Join(ec.SearchFields, ","), ec.DefaultSort.Key)
			}
			return nil
		},
	}
}

func viewFlags(cmd *cobra.Command, opts *options) {
	cmd.Flags().StringVarP(&opts.entity, "entity", "e", "", "Entity name (required)")
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "CSV or JSON file, or http(s) URL (required)")
	cmd.Flags().StringVar(&opts.viewPath, "view", "", "JSON file holding a view state")
	cmd.Flags().StringVarP(&opts.search, "search", "s", "", "Comma-separated search terms")
	cmd.Flags().StringVar(&opts.category, "category", "", "Category filter")
	cmd.Flags().StringVar(&opts.status, "status", "", "Status filter")
	cmd.Flags().StringVar(&opts.dateFilter, "date", "", "Date filter (today, yesterday, lastWeek, lastMonth, thisMonth)")
	cmd.Flags().StringVar(&opts.sortKey, "sort", "", "Sort key")
	cmd.Flags().BoolVar(&opts.desc, "desc", false, "Sort descending")
	_ = cmd.MarkFlagRequired("entity")
	_ = cmd.MarkFlagRequired("input")
}

func queryCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Print one page of a list view as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			ec, view, records, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			// a --view file keeps its own paging unless overridden
			if opts.viewPath == "" || cmd.Flags().Changed("page") {
				view.Page.Page = opts.page
			}
			if opts.viewPath == "" || cmd.Flags().Changed("page-size") {
				view.Page.PageSize = opts.pageSize
			}
			if err := pipeline.ValidateView(view); err != nil {
				return err
			}

			now := opts.now()
			visible := pipeline.Apply(records, ec.Criteria(view.Criteria), ec.Sort(view.Sort), now)
			out := struct {
				model.PageResult
				Metrics map[string]float64 `json:"metrics"`
			}{
				PageResult: pipeline.PageOf(visible, view.Page),
				Metrics:    pipeline.Aggregate(visible, ec.ResolvedMetrics(), now),
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	viewFlags(cmd, opts)
	cmd.Flags().IntVar(&opts.page, "page", 0, "Zero-based page number")
	cmd.Flags().IntVar(&opts.pageSize, "page-size", 10, "Rows per page, 0 for all")
	return cmd
}

func exportCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the filtered, sorted view to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, ok := pipeline.GetFormatInfo(opts.format)
			if !ok {
				return fmt.Errorf("unsupported export format: %s", opts.format)
			}
			ec, view, records, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}
			view.Page = model.PageSpec{}
			if err := pipeline.ValidateView(view); err != nil {
				return err
			}

			now := opts.now()
			rows := pipeline.Apply(records, ec.Criteria(view.Criteria), ec.Sort(view.Sort), now)
			columns := ec.Columns
			if len(columns) == 0 {
				columns = pipeline.InferColumns(rows)
			}
			data, err := pipeline.Encode(info.Name, opts.entity, rows, pipeline.FieldColumns(columns), now)
			if err != nil {
				return err
			}

			if err := os.MkdirAll(opts.outDir, 0755); err != nil {
				return fmt.Errorf("failed to create output dir: %w", err)
			}
			path := filepath.Join(opts.outDir, pipeline.ExportFilename(opts.entity, info.Extension, now))
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("failed to write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records to %s\n", len(rows), path)
			return nil
		},
	}
	viewFlags(cmd, opts)
	cmd.Flags().StringVarP(&opts.format, "format", "f", string(pipeline.FormatCSV), "Export format (csv, xlsx, json)")
	cmd.Flags().StringVarP(&opts.outDir, "out", "o", ".", "Output directory")
	return cmd
}

// load resolves the entity, builds the view from --view and the filter
// flags, and reads the input through a retrying file provider.
func (o *options) load(ctx context.Context) (config.EntityConfig, model.ViewState, []model.Record, error) {
	var view model.ViewState

	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.EntityConfig{}, view, nil, err
	}
	ec, ok := cfg.Entity(o.entity)
	if !ok {
		return config.EntityConfig{}, view, nil, fmt.Errorf("%w: %s", source.ErrUnknownEntity, o.entity)
	}

	if o.viewPath != "" {
		data, err := os.ReadFile(o.viewPath)
		if err != nil {
			return ec, view, nil, fmt.Errorf("failed to read view: %w", err)
		}
		if err := json.Unmarshal(data, &view); err != nil {
			return ec, view, nil, fmt.Errorf("failed to parse view: %w", err)
		}
	}
	o.applyFlags(&view)

	logger := app.DefaultLogger(o.logLevel)
	provider := source.WithRetry(o.entity, &source.FileProvider{
		Path:       o.input,
		Transforms: ec.Source.Transforms,
	}, cfg.Retry, logger)
	records, err := provider.Records(ctx)
	if err != nil {
		return ec, view, nil, err
	}
	return ec, view, records, nil
}

// applyFlags lets explicit flags override the loaded view.
func (o *options) applyFlags(view *model.ViewState) {
	if o.search != "" {
		view.Criteria.SearchTerm = o.search
	}
	if o.category != "" {
		view.Criteria.CategoryFilter = o.category
	}
	if o.status != "" {
		view.Criteria.StatusFilter = o.status
	}
	if o.dateFilter != "" {
		view.Criteria.DateFilter = model.DateFilter(o.dateFilter)
	}
	if o.sortKey != "" {
		view.Sort.Key = o.sortKey
		view.Sort.Direction = model.SortAsc
		if o.desc {
			view.Sort.Direction = model.SortDesc
		}
	}
}
