package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/ppiankov/reltext/internal/relindex"
)

var (
	inspectCategory string
	inspectLimit    int
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <report> [entity]",
	Short: "Query a text report by entity",
	Long: `Inspect reads a text report written by 'reltext analyze' and lists the
partners of an entity ordered by frequency. Without an entity it lists the
words of the selected category.

Example:
  reltext inspect analysis_results.txt Иван
  reltext inspect analysis_results.txt Москва --category loc
  reltext inspect analysis_results.txt --category org`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectCategory, "category", "c", "", "entity category: per, loc, org, action (default: any)")
	inspectCmd.Flags().IntVarP(&inspectLimit, "limit", "n", 0, "maximum rows (0 = all)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	category := relindex.None
	if inspectCategory != "" {
		category = relindex.ParseCategory(inspectCategory)
		if category == relindex.None {
			return fmt.Errorf("unknown category: %s (supported: per, loc, org, action)", inspectCategory)
		}
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open report: %w", err)
	}
	defer func() { _ = f.Close() }()

	index, err := relindex.ReadReport(f)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		if category == relindex.None {
			return fmt.Errorf("either an entity or --category is required")
		}
		words := index.Words(category)
		if inspectLimit > 0 && len(words) > inspectLimit {
			words = words[:inspectLimit]
		}
		fmt.Fprintln(out, strings.Join(words, "\n"))
		return nil
	}

	entity := args[1]
	partners := index.Partners(entity, category)
	if len(partners) == 0 {
		return fmt.Errorf("no relations for %q", entity)
	}
	if inspectLimit > 0 && len(partners) > inspectLimit {
		partners = partners[:inspectLimit]
	}

	rows := make([][]string, 0, len(partners))
	for _, p := range partners {
		partner := p.Word.Text
		if p.Tense != "" {
			partner += " (" + string(p.Tense) + ")"
		}
		rows = append(rows, []string{partner, p.Word.Category.String(), strconv.Itoa(p.Frequency)})
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Headers("Partner", "Category", "Frequency").
		Rows(rows...).
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("8"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 2 {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle
		})

	fmt.Fprintln(out, entity)
	fmt.Fprintln(out, t.String())
	return nil
}
