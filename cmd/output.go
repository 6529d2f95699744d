package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"dynai/internal/models"
)

func verdict(ok bool) string {
	if ok {
		return color.GreenString("yes")
	}
	return color.RedString("no")
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func renderMessages(w io.Writer, messages []models.Message) {
	if len(messages) == 0 {
		fmt.Fprintln(w, "No messages found.")
		return
	}
	table := newTable(w, []string{"Message ID", "Category", "Text"})
	for _, m := range messages {
		category := "-"
		if m.HasCategory {
			category = m.Category
		}
		table.Append([]string{m.ID, category, truncate(m.Text, 60)})
	}
	table.Render()
}

func renderCategories(w io.Writer, categories []models.CategoryAssignment) {
	if len(categories) == 0 {
		fmt.Fprintln(w, "No categories assigned.")
		return
	}
	table := newTable(w, []string{"Message ID", "Category"})
	for _, a := range categories {
		table.Append([]string{a.MessageID, a.Category})
	}
	table.Render()
}

func renderSimilarity(w io.Writer, results []models.SimilarityResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No similar messages.")
		return
	}
	table := newTable(w, []string{"Message ID", "Similarity", "Accuracy", "Approved", "Same Text", "Stats", "Text"})
	for _, r := range results {
		similarity := "n/a"
		if r.Similarity != nil {
			similarity = strconv.Itoa(*r.Similarity)
		}
		table.Append([]string{
			r.MessageID,
			similarity,
			strconv.FormatFloat(r.Accuracy, 'f', 1, 64),
			strconv.FormatBool(r.IsApproved),
			strconv.FormatBool(r.IsSameText),
			strconv.FormatBool(r.HasStatistics),
			truncate(r.MessageText, 40),
		})
	}
	table.Render()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
