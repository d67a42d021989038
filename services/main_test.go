package services

import (
	"testing"

	"go.uber.org/goleak"

	"github.com/rouhat/antimicrobial-resistance-analysis/config"
	"github.com/rouhat/antimicrobial-resistance-analysis/models"
	"github.com/rouhat/antimicrobial-resistance-analysis/utils"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestLogger() *utils.Logger { return utils.NewNopLogger() }

func longTable(rows ...[]string) *models.Table {
	return &models.Table{
		Source: "test.csv",
		Header: []string{"Organism", "Antibiotic", "Result", "Age", "Sex", "Specimen Type", "_uuid"},
		Rows:   rows,
	}
}

func testPipeline(t *testing.T, override string) *config.Pipeline {
	t.Helper()
	p, err := config.ParsePipeline([]byte(override))
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	return p
}
