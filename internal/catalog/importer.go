package catalog

import (
	"context"
	"time"

	"github.com/JonMunkholm/glossary/internal/glossary"
	"github.com/JonMunkholm/glossary/internal/logging"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of in-flight create requests when none
// is configured.
const DefaultConcurrency = 4

// TermCreator creates glossary terms. *Client satisfies it.
type TermCreator interface {
	CreateTerm(ctx context.Context, req CreateTermRequest) (*Term, error)
}

// RowStatus is the outcome of importing one record.
type RowStatus struct {
	Row     int    `json:"row"` // 1-based data row
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	TermID  string `json:"termId,omitempty"`
	Error   string `json:"error,omitempty"`
	Elapsed int64  `json:"elapsedMs"`
}

// Importer submits records to a TermCreator with bounded concurrency.
type Importer struct {
	creator     TermCreator
	glossary    string
	concurrency int
}

// NewImporter creates an importer targeting the named glossary.
func NewImporter(creator TermCreator, glossaryName string, concurrency int) *Importer {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Importer{
		creator:     creator,
		glossary:    glossaryName,
		concurrency: concurrency,
	}
}

// Glossary returns the target glossary name.
func (im *Importer) Glossary() string {
	return im.glossary
}

// Import sends one create request per record. Every record gets a status, in
// input order; a failed row never stops its siblings. Once ctx is done the
// remaining rows fail with the context error.
func (im *Importer) Import(ctx context.Context, records []glossary.TargetRecord) []RowStatus {
	logger := logging.WithFields(ctx, "glossary", im.glossary, "rows", len(records))
	statuses := make([]RowStatus, len(records))

	var g errgroup.Group
	g.SetLimit(im.concurrency)

	for i, rec := range records {
		g.Go(func() error {
			statuses[i] = im.importOne(ctx, i, rec)
			if !statuses[i].OK {
				logger.Warn("term import failed",
					"row", statuses[i].Row,
					"name", statuses[i].Name,
					"error", statuses[i].Error,
				)
			}
			return nil
		})
	}
	_ = g.Wait()

	ok, failed := Summarize(statuses)
	logger.Info("glossary import finished", "ok", ok, "failed", failed)
	return statuses
}

func (im *Importer) importOne(ctx context.Context, i int, rec glossary.TargetRecord) RowStatus {
	start := time.Now()
	st := RowStatus{Row: i + 1, Name: rec.Name}

	if err := ctx.Err(); err != nil {
		st.Error = err.Error()
		return st
	}

	req, err := BuildTermRequest(im.glossary, rec)
	if err != nil {
		st.Error = err.Error()
		return st
	}

	term, err := im.creator.CreateTerm(ctx, req)
	st.Elapsed = time.Since(start).Milliseconds()
	if err != nil {
		st.Error = err.Error()
		return st
	}

	st.OK = true
	if term != nil {
		st.TermID = term.ID
	}
	return st
}

// Summarize counts successful and failed rows.
func Summarize(statuses []RowStatus) (ok, failed int) {
	for _, st := range statuses {
		if st.OK {
			ok++
		} else {
			failed++
		}
	}
	return ok, failed
}
