package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/five82/datamate/internal/catalog"
	"github.com/five82/datamate/internal/query"
)

type listFlags struct {
	keywords string
	filters  []string
	page     int
	size     int
	json     bool
}

func newListCmd(root *rootFlags) *cobra.Command {
	lf := &listFlags{}
	cmd := &cobra.Command{
		Use:       "list <resource>",
		Short:     "Print one page of a resource",
		Long:      "Print one page of a resource.\n\nResources: " + strings.Join(catalog.Keys(), ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: catalog.Keys(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, root, lf, args[0])
		},
	}
	cmd.Flags().StringVarP(&lf.keywords, "keywords", "k", "", "search keywords")
	cmd.Flags().StringArrayVarP(&lf.filters, "filter", "f", nil, "facet filter key=value (repeatable)")
	cmd.Flags().IntVar(&lf.page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&lf.size, "size", 0, "page size (default: page_size from config)")
	cmd.Flags().BoolVar(&lf.json, "json", false, "output in JSON format")
	return cmd
}

func runList(cmd *cobra.Command, root *rootFlags, lf *listFlags, name string) error {
	r, ok := catalog.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown resource %q (want one of %s)", name, strings.Join(catalog.Keys(), ", "))
	}
	if lf.page < 1 {
		return fmt.Errorf("--page must be at least 1, got %d", lf.page)
	}
	if lf.size < 0 {
		return fmt.Errorf("--size must not be negative, got %d", lf.size)
	}
	filters, err := parseFilters(r.Facets, lf.filters)
	if err != nil {
		return err
	}

	e, err := root.setup()
	if err != nil {
		return err
	}
	defer func() { _ = e.close() }()

	size := lf.size
	if size == 0 {
		size = e.cfg.PageSize
	}
	src := r.Open(e.client, catalog.Settings{
		PageSize: size,
		Logger:   e.log.WithName("list").WithValues("resource", r.Key),
	})
	if err := src.SetSearchParams(query.Patch{Keywords: &lf.keywords, Filters: filters}); err != nil {
		return err
	}
	src.OnPageChange(lf.page, size)

	res, err := src.FetchData(cmd.Context())
	if err != nil {
		return fmt.Errorf("list %s: %w", r.Key, err)
	}

	out := cmd.OutOrStdout()
	if lf.json {
		return writeJSON(out, r, res, src.Pagination())
	}
	writeTable(out, r, res, src.Pagination())
	return nil
}

// parseFilters turns key=value pairs into facet selections. Values match
// options ignoring case; validation against facets happens in the query.
func parseFilters(facets *query.FacetSet, pairs []string) (map[string][]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string][]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key, value = strings.ToLower(strings.TrimSpace(key)), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("invalid filter %q, want key=value", pair)
		}
		if f, found := facets.Lookup(key); found && !strings.EqualFold(value, query.AllValue) {
			value = f.Describe(value).Value
		} else if found {
			value = query.AllValue
		}
		out[key] = append(out[key], value)
	}
	return out, nil
}

type listOutput struct {
	Resource   string              `json:"resource"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"pageSize"`
	Total      int                 `json:"total"`
	TotalPages int                 `json:"totalPages"`
	Rows       []map[string]string `json:"rows"`
}

func writeJSON(w io.Writer, r catalog.Resource, res query.Result[catalog.Row], pg query.Pagination) error {
	payload := listOutput{
		Resource:   r.Key,
		Page:       pg.Current,
		PageSize:   pg.PageSize,
		Total:      res.Total,
		TotalPages: pg.TotalPages(),
		Rows:       make([]map[string]string, 0, len(res.Rows)),
	}
	for _, row := range res.Rows {
		item := map[string]string{"id": row.ID}
		for i, col := range r.Columns {
			if i < len(row.Cells) {
				item[strings.ToLower(col.Title)] = row.Cells[i]
			}
		}
		payload.Rows = append(payload.Rows, item)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writeTable(w io.Writer, r catalog.Resource, res query.Result[catalog.Row], pg query.Pagination) {
	headers := make([]string, len(r.Columns))
	for i, col := range r.Columns {
		headers[i] = col.Title
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().Bold(true).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, row := range res.Rows {
		t.Row(row.Cells...)
	}

	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "page %d/%d · %d items\n", pg.Current, pg.TotalPages(), res.Total)
}
