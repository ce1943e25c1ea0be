package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/padwatch/internal/config"
	"github.com/nao1215/padwatch/internal/database"
	"github.com/nao1215/padwatch/internal/model"
	"github.com/spf13/cobra"
)

// errHistoryUnsupported is returned by the history command for the fs driver.
var errHistoryUnsupported = errors.New("settle history is only recorded by the sqlite repo driver")

// NewLinksCmd creates the links command.
func NewLinksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "links",
		Short: "List every pad in the snapshot repository",
		Long: `Links prints the URL of every pad that has a stored snapshot, in the
order the repository returns them. These are the pads a watch run is seeded
with in addition to crawl.seeds.

Examples:
  padwatch links
  padwatch links --markdown`,
		Args: cobra.NoArgs,
		RunE: runLinksCmd,
	}

	cmd.Flags().BoolP("markdown", "m", false, "Print a Markdown table instead of one URL per line")

	return cmd
}

func runLinksCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	asMarkdown, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	store, err := openStore(cfg.Repo)
	if err != nil {
		return err
	}
	defer store.Close()

	links, err := store.Links(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list links: %w", err)
	}
	return writeLinks(cmd.OutOrStdout(), links, asMarkdown)
}

func writeLinks(w io.Writer, links []model.Link, asMarkdown bool) error {
	if !asMarkdown {
		for _, link := range links {
			if _, err := fmt.Fprintln(w, link.URL()); err != nil {
				return err
			}
		}
		return nil
	}

	rows := make([][]string, 0, len(links))
	for _, link := range links {
		rows = append(rows, []string{link.Server, link.Name, link.URL()})
	}
	return markdown.NewMarkdown(w).
		H2("Known pads (" + strconv.Itoa(len(links)) + ")").
		Table(markdown.TableSet{
			Header: []string{"Server", "Name", "URL"},
			Rows:   rows,
		}).
		Build()
}

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history <pad-url>",
		Short: "Show when a pad settled and which snapshots were stored",
		Long: `History prints every settle event recorded for one pad: when it was
stored, whether it was a creation or an update, and the fingerprints of the
stored and the previous content. Requires repo.driver: sqlite.

Example:
  padwatch history https://pad.example/agenda`,
		Args: cobra.ExactArgs(1),
		RunE: runHistoryCmd,
	}
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.Repo.Driver != config.RepoDriverSQLite {
		return errHistoryUnsupported
	}

	link, ok := model.NewServerSet(cfg.Crawl.Servers...).Resolve(args[0])
	if !ok {
		return fmt.Errorf("%s is not a pad on any configured server", args[0])
	}

	db, err := database.Open(cfg.Repo.Path, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	history, err := db.History(cmd.Context(), link)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	return writeHistory(cmd.OutOrStdout(), link, history)
}

func writeHistory(w io.Writer, link model.Link, history []database.Settle) error {
	rows := make([][]string, 0, len(history))
	for _, s := range history {
		change := "updated"
		if s.Created() {
			change = "created"
		}
		prior := s.PriorHash
		if prior == "" {
			prior = "-"
		}
		rows = append(rows, []string{
			s.StoredAt.Format("2006-01-02 15:04:05 MST"),
			change,
			"`" + shortHash(s.Hash) + "`",
			"`" + shortHash(prior) + "`",
		})
	}

	md := markdown.NewMarkdown(w).H2(link.URL())
	if len(rows) == 0 {
		return md.PlainText("No settle events recorded.").Build()
	}
	return md.Table(markdown.TableSet{
		Header: []string{"Stored at", "Change", "Hash", "Prior hash"},
		Rows:   rows,
	}).Build()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
