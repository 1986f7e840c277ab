package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hantyrram/stegdb"
	"github.com/hantyrram/stegdb/codec"
	"github.com/hantyrram/stegdb/metrics"
	"github.com/hantyrram/stegdb/storage"
)

// options turns the configuration into stegdb options.
func (a *app) options() ([]stegdb.Option, error) {
	c, ok := codec.ByName(a.cfg.Codec)
	if !ok {
		return nil, &usageError{msg: fmt.Sprintf("unknown codec %q", a.cfg.Codec)}
	}
	comp, err := storage.ParseCompression(a.cfg.Compression)
	if err != nil {
		return nil, &usageError{msg: "invalid compression", err: err}
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.cfg.LogLevel)); err != nil {
		return nil, &usageError{msg: "invalid log level", err: err}
	}

	opts := []stegdb.Option{
		stegdb.WithCodec(c),
		stegdb.WithCompression(comp),
		stegdb.WithLogLevel(level),
		stegdb.WithSnapshotDir(a.cfg.SnapshotDir),
		stegdb.WithSnapshotIOLimit(a.cfg.SnapshotIOLimit),
	}
	if a.registry != nil {
		opts = append(opts, stegdb.WithMetricsCollector(metrics.NewPrometheusCollector(a.registry)))
	}
	return opts, nil
}

func (a *app) open(ctx context.Context) (*stegdb.DB, error) {
	if a.cfg.Database == "" {
		return nil, &usageError{msg: "no database path; use --db or set database in the config file"}
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}
	return stegdb.Connect(ctx, a.cfg.Database, opts...)
}

// withDB opens the database, runs fn and closes the database.
func (a *app) withDB(cmd *cobra.Command, fn func(ctx context.Context, db *stegdb.DB) error) error {
	ctx := cmd.Context()
	db, err := a.open(ctx)
	if err != nil {
		return err
	}
	return errors.Join(fn(ctx, db), db.Close())
}

func parseObject(what, s string) (map[string]any, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var m map[string]any
	if err := codec.Default.Unmarshal([]byte(s), &m); err != nil {
		return nil, &usageError{msg: "invalid " + what + " JSON", err: err}
	}
	return m, nil
}

func parseDocuments(s string) ([]stegdb.Document, error) {
	var v any
	if err := codec.Default.Unmarshal([]byte(s), &v); err != nil {
		return nil, &usageError{msg: "invalid document JSON", err: err}
	}
	switch x := v.(type) {
	case map[string]any:
		return []stegdb.Document{x}, nil
	case []any:
		docs := make([]stegdb.Document, 0, len(x))
		for i, item := range x {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, &usageError{msg: fmt.Sprintf("document %d is not an object", i)}
			}
			docs = append(docs, m)
		}
		return docs, nil
	default:
		return nil, &usageError{msg: "documents must be an object or an array of objects"}
	}
}

func optionalArg(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a database",
		Long: `Writes an empty database. A missing plain file is created; images must
already exist and are used as the carrier.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := a.cfg.Database
			if path != "" {
				if err := createIfMissing(path); err != nil {
					return err
				}
			}
			return a.withDB(cmd, func(ctx context.Context, db *stegdb.DB) error {
				if err := db.Commit(ctx); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Database initialized at %s", path)
				return nil
			})
		},
	}
}

func createIfMissing(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".bmp":
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	return f.Close()
}

func newCollectionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "collections",
		Short: "List collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDB(cmd, func(_ context.Context, db *stegdb.DB) error {
				names, err := db.CollectionNames()
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			})
		},
	}
}

func newCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <collection> [documents]",
		Short: "Create a collection, optionally with initial documents",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var docs []stegdb.Document
			if s := optionalArg(args, 1); s != "" {
				var err error
				if docs, err = parseDocuments(s); err != nil {
					return err
				}
			}
			return a.withDB(cmd, func(ctx context.Context, db *stegdb.DB) error {
				if _, err := db.CreateCollection(ctx, args[0], docs...); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Collection '%s' created with %d documents", args[0], len(docs))
				return nil
			})
		},
	}
}

func newInsertCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "insert <collection> <document|documents>",
		Short: "Insert one document or an array of documents",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := parseDocuments(args[1])
			if err != nil {
				return err
			}
			return a.withDB(cmd, func(ctx context.Context, db *stegdb.DB) error {
				res, err := db.InsertMany(ctx, args[0], docs)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{"insertedIds": res.InsertedIDs})
			})
		},
	}
}

func newFindCmd(a *app) *cobra.Command {
	var (
		one        bool
		projection string
		limit      int
		skip       int
	)
	cmd := &cobra.Command{
		Use:   "find <collection> [filter]",
		Short: "Find documents matching a filter",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseObject("filter", optionalArg(args, 1))
			if err != nil {
				return err
			}
			proj, err := parseObject("projection", projection)
			if err != nil {
				return err
			}
			opts := []stegdb.FindOption{
				stegdb.WithProjection(proj),
				stegdb.WithLimit(limit),
				stegdb.WithSkip(skip),
			}
			return a.withDB(cmd, func(_ context.Context, db *stegdb.DB) error {
				if one {
					doc, err := db.FindOne(args[0], filter, opts...)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), doc)
				}
				docs, err := db.Find(args[0], filter, opts...)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), docs)
			})
		},
	}
	cmd.Flags().BoolVar(&one, "one", false, "return only the first match")
	cmd.Flags().StringVar(&projection, "projection", "", "projection JSON, e.g. '{\"name\":1}'")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of documents (0 = all)")
	cmd.Flags().IntVar(&skip, "skip", 0, "number of matches to skip")
	return cmd
}

func newCountCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "count <collection> [filter]",
		Short: "Count documents matching a filter",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseObject("filter", optionalArg(args, 1))
			if err != nil {
				return err
			}
			return a.withDB(cmd, func(_ context.Context, db *stegdb.DB) error {
				n, err := db.CountDocuments(args[0], filter)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}

func newUpdateCmd(a *app) *cobra.Command {
	var many bool
	cmd := &cobra.Command{
		Use:   "update <collection> <filter> <update>",
		Short: "Apply $set/$unset to the first (or every) matching document",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseObject("filter", args[1])
			if err != nil {
				return err
			}
			spec, err := parseObject("update", args[2])
			if err != nil {
				return err
			}
			return a.withDB(cmd, func(ctx context.Context, db *stegdb.DB) error {
				update := db.UpdateOne
				if many {
					update = db.UpdateMany
				}
				n, err := update(ctx, args[0], filter, spec)
				if err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "%d document(s) updated", n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&many, "many", false, "update every matching document")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	var many bool
	cmd := &cobra.Command{
		Use:   "delete <collection> <filter>",
		Short: "Delete the first (or every) matching document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseObject("filter", args[1])
			if err != nil {
				return err
			}
			return a.withDB(cmd, func(ctx context.Context, db *stegdb.DB) error {
				del := db.DeleteOne
				if many {
					del = db.DeleteMany
				}
				n, err := del(ctx, args[0], filter)
				if err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "%d document(s) deleted", n)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&many, "many", false, "delete every matching document")
	return cmd
}

func newDropCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "drop <collection>",
		Short: "Remove a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd, func(ctx context.Context, db *stegdb.DB) error {
				if err := db.Drop(ctx, args[0]); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Collection '%s' dropped", args[0])
				return nil
			})
		},
	}
}

func newDropDBCmd(a *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "dropdb",
		Short: "Remove every collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return &usageError{msg: "dropdb deletes all data; pass --yes to confirm"}
			}
			return a.withDB(cmd, func(ctx context.Context, db *stegdb.DB) error {
				if err := db.DropDB(ctx); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Database dropped")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm dropping all collections")
	return cmd
}

func newDumpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the whole database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDB(cmd, func(_ context.Context, db *stegdb.DB) error {
				tree, err := db.SelectAll()
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), tree)
			})
		},
	}
}

func newSnapshotCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Write a backup file to the snapshot directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withDB(cmd, func(ctx context.Context, db *stegdb.DB) error {
				path, err := db.CreateSnapshot(ctx)
				if err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Snapshot written")
				detail(cmd.OutOrStdout(), "%s", path)
				return nil
			})
		},
	}
}

func newRestoreCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "restore <backup>",
		Short: "Replace the database with a backup file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withDB(cmd, func(ctx context.Context, db *stegdb.DB) error {
				if err := db.LoadFromBackup(ctx, args[0]); err != nil {
					return err
				}
				success(cmd.OutOrStdout(), "Database restored from %s", args[0])
				return nil
			})
		},
	}
}
