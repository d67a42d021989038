package storage

import "github.com/rouhat/antimicrobial-resistance-analysis/models"

// TableReader loads a raw input table.
type TableReader interface {
	ReadTable(path string) (*models.Table, error)
}

// IsolateStore persists and reloads cleaned records.
type IsolateStore interface {
	WriteIsolates(path string, isolates []models.Isolate) error
	ReadIsolates(path string) ([]models.Isolate, error)
}

// SummaryStore persists and reloads aggregate rows.
type SummaryStore interface {
	WriteSummary(path string, rows []models.ResistanceSummary, byOrganism bool) error
	ReadSummary(path string) ([]models.ResistanceSummary, error)
}

// ReportWriter persists the clinical analysis tables.
type ReportWriter interface {
	WriteFirstLine(path string, treatments []models.FirstLineTreatment) error
	WriteMDR(path string, organisms []models.MDROrganism) error
}

// Store is everything the pipeline stages persist between runs.
type Store interface {
	IsolateStore
	SummaryStore
	ReportWriter
}

var (
	_ TableReader = FileReader{}
	_ Store       = CSVStore{}
)
