package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xhad/papertag/internal/models"
)

var testCategories = []string{"Deep Learning", "Computer Vision", "Optimization"}

func row(title, category string) models.Row {
	return models.Row{Title: title, Fragment: "abstract of " + title, Category: category, Filename: title + ".pdf"}
}

func TestPartitionRows(t *testing.T) {
	rows := []models.Row{
		row("a", "Optimization"),
		row("b", "Deep Learning"),
		row("c", "Robotics"),
		row("d", "Optimization"),
		row("e", models.Unknown),
	}

	parts := PartitionRows(rows, testCategories)

	assert.Len(t, parts, 3)
	assert.Equal(t, "Deep Learning", parts[0].Category)
	assert.Equal(t, []models.Row{rows[1]}, parts[0].Rows)
	assert.Equal(t, "Optimization", parts[1].Category)
	assert.Equal(t, []models.Row{rows[0], rows[3]}, parts[1].Rows)
	assert.Equal(t, models.Unknown, parts[2].Category)
	assert.Equal(t, []models.Row{rows[2], rows[4]}, parts[2].Rows)

	// Unmatched labels keep their literal value
	assert.Equal(t, "Robotics", parts[2].Rows[0].Category)
}

func TestPartitionRowsEmpty(t *testing.T) {
	assert.Empty(t, PartitionRows(nil, testCategories))
}

func TestTableName(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{"Deep Learning", "papers_deep_learning"},
		{"Natural Language Processing", "papers_natural_language_processing"},
		{models.Unknown, "papers_unknown"},
		{"C++ / Systems!", "papers_c_systems"},
		{"***", "papers_unnamed"},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			assert.Equal(t, tt.want, tableName("papers", tt.category))
		})
	}
}

func TestResolveCategory(t *testing.T) {
	assert.Equal(t, "Optimization", resolveCategory("Optimization", testCategories))
	assert.Equal(t, models.Unknown, resolveCategory("Robotics", testCategories))
}
