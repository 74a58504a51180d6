package cli

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sortly/internal/core"
)

func (a *app) parseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "parse [FILE]",
		Short: "Parse tabular text and show columns, rows and detected types",
		Long: `Parse reads FILE (or stdin) as tab, comma, pipe or semicolon separated
text with a header line. A single line is split into one "Value" column.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readInput(args)
			if err != nil {
				return err
			}
			res, err := core.Parse(text)
			if err != nil {
				return err
			}
			types := core.DetectTypes(res.Rows, res.Columns)

			switch a.format {
			case outputFormatJSON:
				return a.writeJSON(map[string]any{
					"columns":   res.Columns,
					"rows":      res.Rows,
					"delimiter": res.Delimiter,
					"types":     types,
				})
			case outputFormatTSV:
				return writeTSV(a.out, res.Columns, res.Rows)
			}

			if err := datasetTable(res.Columns, res.Rows).print(a.out, cellLimit(a.out)); err != nil {
				return err
			}
			fmt.Fprintln(a.out)
			t := newTable("COLUMN", "TYPE")
			for _, c := range res.Columns {
				t.addRow(c, string(types[c]))
			}
			if err := t.print(a.out, 0); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "\ndelimiter %s, %d %s\n",
				delimiterName(res.Delimiter), len(res.Rows), plural(len(res.Rows), "row"))
			return err
		},
	}
}

func (a *app) sortCommand() *cobra.Command {
	var by []string
	var label string
	var save bool

	cmd := &cobra.Command{
		Use:   "sort [FILE]",
		Short: "Sort tabular text by one or more columns",
		Long: `Sort parses FILE (or stdin) and orders the rows by the --by rules, highest
priority first. Each rule is COLUMN[:asc|desc][:alpha|numeric|date|length];
a missing type is detected from the data. Without --by the first column is
sorted ascending.`,
		Example: `  sortly sort data.csv --by Age:desc:numeric --by Name
  pbpaste | sortly sort --by "Due date:date" --format tsv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.loadDataset(args, by, label)
			if err != nil {
				return err
			}
			if save {
				if err := a.saveWorkspace(cmd, ws); err != nil {
					return err
				}
			}
			return a.printDataset(ws.Sorted())
		},
	}
	cmd.Flags().StringArrayVarP(&by, "by", "b", nil, "sort rule COLUMN[:asc|desc][:TYPE], repeatable")
	cmd.Flags().StringVarP(&label, "label", "l", "", "label for the dataset")
	cmd.Flags().BoolVar(&save, "save", false, "save the dataset to history")
	return cmd
}

func (a *app) shareCommand() *cobra.Command {
	var by []string
	var label string
	var baseURL string

	cmd := &cobra.Command{
		Use:   "share [FILE]",
		Short: "Print a share link carrying the sorted dataset",
		Long: `Share encodes the sorted rows, the rules and the label into a link. The
link is the only copy of the data: nothing is stored anywhere.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := a.loadDataset(args, by, label)
			if err != nil {
				return err
			}
			payload, err := ws.SharePayload()
			if err != nil {
				return err
			}
			token, err := a.codec.Encode(cmd.Context(), payload)
			if err != nil {
				return err
			}

			if baseURL == "" {
				baseURL = a.cfg.Share.BaseURL
			}
			path := "/s/" + token
			link := path
			if baseURL != "" {
				link = strings.TrimRight(baseURL, "/") + path
			}

			if a.format == outputFormatJSON {
				return a.writeJSON(map[string]string{"token": token, "path": path, "url": link})
			}
			_, err = fmt.Fprintln(a.out, link)
			return err
		},
	}
	cmd.Flags().StringArrayVarP(&by, "by", "b", nil, "sort rule COLUMN[:asc|desc][:TYPE], repeatable")
	cmd.Flags().StringVarP(&label, "label", "l", "", "label for the dataset")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "prefix for the printed link (default $SHARE_BASE_URL)")
	return cmd
}

func (a *app) openCommand() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "open TOKEN|URL",
		Short: "Decode a share link and print its table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := a.codec.DecodeDataset(cmd.Context(), tokenFromArg(args[0]))
			if err != nil {
				return err
			}
			ws := core.NewWorkspace()
			ws.Import(*payload)
			if save {
				if err := a.saveWorkspace(cmd, ws); err != nil {
					return err
				}
			}
			return a.printDataset(ws.Sorted())
		},
	}
	cmd.Flags().BoolVar(&save, "save", false, "import the dataset into history")
	return cmd
}

func (a *app) historyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, show and delete saved datasets",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved datasets, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := a.history(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			entries, err := store.Load(cmd.Context())
			if err != nil {
				return err
			}
			if a.format == outputFormatJSON {
				return a.writeJSON(entries)
			}
			if len(entries) == 0 {
				_, err := fmt.Fprintln(a.errOut, "No saved datasets.")
				return err
			}
			t := newTable("ID", "LABEL", "COLUMNS", "ROWS", "SAVED")
			for _, e := range entries {
				t.addRow(e.ID, e.Label,
					fmt.Sprint(len(e.Columns)), fmt.Sprint(len(e.Rows)),
					time.UnixMilli(e.CreatedAt).Local().Format("2006-01-02 15:04"))
			}
			return t.print(a.out, cellLimit(a.out))
		},
	}

	show := &cobra.Command{
		Use:   "show ID",
		Short: "Print a saved dataset, sorted by its rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := a.history(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			entry, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ws := core.NewWorkspace()
			ws.Restore(entry)
			return a.printDataset(ws.Sorted())
		},
	}

	del := &cobra.Command{
		Use:   "delete ID...",
		Short: "Delete saved datasets",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := a.history(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			for _, id := range args {
				if err := store.Delete(cmd.Context(), id); err != nil {
					return err
				}
			}
			return nil
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every saved dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeFn, err := a.history(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			return store.Clear(cmd.Context())
		},
	}

	cmd.AddCommand(list, show, del, clearCmd)
	return cmd
}

func (a *app) saveWorkspace(cmd *cobra.Command, ws *core.Workspace) error {
	store, closeFn, err := a.history(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	entry, err := ws.Snapshot()
	if err != nil {
		return err
	}
	if err := store.Save(cmd.Context(), entry); err != nil {
		return err
	}
	_, err = fmt.Fprintf(a.errOut, "saved %s (%s)\n", entry.ID, entry.Label)
	return err
}

// tokenFromArg accepts a bare token or any URL whose path contains /s/TOKEN.
func tokenFromArg(arg string) string {
	arg = strings.TrimSpace(arg)
	path := arg
	if u, err := url.Parse(arg); err == nil && (u.Scheme != "" || strings.HasPrefix(arg, "/")) {
		path = u.Path
	}
	if i := strings.LastIndex(path, "/s/"); i >= 0 {
		return strings.Trim(path[i+len("/s/"):], "/")
	}
	return path
}

func delimiterName(d string) string {
	switch d {
	case "\t":
		return "tab"
	case ",":
		return "comma"
	case "|":
		return "pipe"
	case ";":
		return "semicolon"
	case "":
		return "none"
	}
	return fmt.Sprintf("%q", d)
}
