package source

import (
	"context"
	"fmt"
	"regexp"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/theirongolddev/budgetrecon/internal/model"
)

var identRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ledgerRow is one warehouse row. Every column is cast to STRING in the
// query so numeric and date columns share the CSV code path.
type ledgerRow struct {
	Company        bigquery.NullString `bigquery:"company"`
	Vendor         bigquery.NullString `bigquery:"vendor"`
	Classification bigquery.NullString `bigquery:"classification"`
	SubCategory    bigquery.NullString `bigquery:"sub_category"`
	Amount         bigquery.NullString `bigquery:"amount"`
	InvoiceDate    bigquery.NullString `bigquery:"invoice_date"`
	Status         bigquery.NullString `bigquery:"status"`
	Approver1      bigquery.NullString `bigquery:"approver_1_approval"`
	Approver2      bigquery.NullString `bigquery:"approver_2_approval"`
	Approver3      bigquery.NullString `bigquery:"approver_3_approval"`
	Currency       bigquery.NullString `bigquery:"currency"`
	BudgetYear     bigquery.NullString `bigquery:"budget_year"`
}

func (r ledgerRow) transaction() model.ExpenseTransaction {
	return model.ExpenseTransaction{
		Company:        r.Company.StringVal,
		Vendor:         r.Vendor.StringVal,
		Classification: r.Classification.StringVal,
		CategoryField:  r.SubCategory.StringVal,
		Amount:         r.Amount.StringVal,
		InvoiceDate:    r.InvoiceDate.StringVal,
		Status:         r.Status.StringVal,
		Approvals:      [3]string{r.Approver1.StringVal, r.Approver2.StringVal, r.Approver3.StringVal},
		Currency:       r.Currency.StringVal,
		BudgetYear:     r.BudgetYear.StringVal,
	}
}

// BigQueryLedger reads the expense ledger from a warehouse table.
type BigQueryLedger struct {
	client  *bigquery.Client
	project string
	dataset string
	table   string
}

// NewBigQueryLedger creates a client for project and validates the table path.
func NewBigQueryLedger(ctx context.Context, project, dataset, table string) (*BigQueryLedger, error) {
	for _, id := range []string{project, dataset, table} {
		if !identRe.MatchString(id) {
			return nil, &model.SchemaError{Reason: "invalid bigquery identifier", Value: id}
		}
	}
	client, err := bigquery.NewClient(ctx, project)
	if err != nil {
		return nil, model.Boundary("ledger", fmt.Errorf("bigquery client: %w", err))
	}
	return &BigQueryLedger{client: client, project: project, dataset: dataset, table: table}, nil
}

// Close releases the BigQuery client.
func (l *BigQueryLedger) Close() error {
	return l.client.Close()
}

// ID implements Ledger.
func (l *BigQueryLedger) ID() string {
	return fmt.Sprintf("bq:%s.%s.%s", l.project, l.dataset, l.table)
}

func (l *BigQueryLedger) query() string {
	return fmt.Sprintf(`
		SELECT
		  CAST(company AS STRING) AS company,
		  CAST(vendor AS STRING) AS vendor,
		  CAST(classification AS STRING) AS classification,
		  CAST(sub_category AS STRING) AS sub_category,
		  CAST(amount AS STRING) AS amount,
		  CAST(invoice_date AS STRING) AS invoice_date,
		  CAST(status AS STRING) AS status,
		  CAST(approver_1_approval AS STRING) AS approver_1_approval,
		  CAST(approver_2_approval AS STRING) AS approver_2_approval,
		  CAST(approver_3_approval AS STRING) AS approver_3_approval,
		  CAST(currency AS STRING) AS currency,
		  CAST(budget_year AS STRING) AS budget_year
		FROM `+"`%s.%s.%s`", l.project, l.dataset, l.table)
}

// Transactions implements Ledger.
func (l *BigQueryLedger) Transactions(ctx context.Context) ([]model.ExpenseTransaction, error) {
	it, err := l.client.Query(l.query()).Read(ctx)
	if err != nil {
		return nil, model.Boundary("ledger", fmt.Errorf("bigquery read: %w", err))
	}

	var txs []model.ExpenseTransaction
	for {
		var r ledgerRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, model.Boundary("ledger", fmt.Errorf("bigquery iter next: %w", err))
		}
		txs = append(txs, r.transaction())
	}
	return txs, nil
}
