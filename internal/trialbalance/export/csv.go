// Package export serialises trial balance reports to downloadable formats.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/ledgerview-erp/ledgerview/internal/trialbalance"
)

// WriteReportCSV serialises the report to CSV, one row per account or group,
// preceded by a scope row whenever the report is grouped.
func WriteReportCSV(w io.Writer, rep trialbalance.Report) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := []string{"Type", "Code", "Name", "Initial Balance", "Debit", "Credit", "Balance", "Ending Balance"}
	if rep.Params.ForeignCurrency {
		header = append(header, "Initial Currency Balance", "Currency Balance", "Ending Currency Balance")
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, scope := range rep.Scopes {
		if rep.Params.GroupedBy != trialbalance.GroupedByNone {
			if err := writer.Write(amountRecord(rep, "scope", scope.Code, scope.Name, scope.Amounts)); err != nil {
				return err
			}
		}
		for _, row := range scope.Rows {
			record, err := rowRecord(rep, row)
			if err != nil {
				return err
			}
			if err := writer.Write(record); err != nil {
				return err
			}
			if acc, ok := row.(trialbalance.AccountRow); ok {
				for _, partner := range acc.Partners {
					if err := writer.Write(amountRecord(rep, "partner", "", partner.Name, partner.Amounts)); err != nil {
						return err
					}
				}
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteLedgerDetailCSV emits the list-of-moves view: per account a header
// row followed by every period entry with its running balance.
func WriteLedgerDetailCSV(w io.Writer, details []trialbalance.AccountDetail) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Account", "Date", "Ref", "Debit", "Credit", "Cumulative"}); err != nil {
		return err
	}
	for _, detail := range details {
		if err := writer.Write([]string{detail.Code + " " + detail.Name, "", "Opening", "", "", formatFloat(detail.Opening)}); err != nil {
			return err
		}
		for _, entry := range detail.Entries {
			if err := writer.Write([]string{
				detail.Code,
				entry.Date.Format("2006-01-02"),
				entry.Ref,
				formatFloat(entry.Debit),
				formatFloat(entry.Credit),
				formatFloat(entry.Cumulative),
			}); err != nil {
				return err
			}
		}
		if err := writer.Write([]string{detail.Code, "", "Ending", formatFloat(detail.Debit), formatFloat(detail.Credit), formatFloat(detail.Ending)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func rowRecord(rep trialbalance.Report, row trialbalance.Row) ([]string, error) {
	switch r := row.(type) {
	case trialbalance.AccountRow:
		return amountRecord(rep, "account", r.Code, r.Name, r.Amounts), nil
	case trialbalance.GroupRow:
		return amountRecord(rep, "group", r.Code, r.Name, r.Amounts), nil
	default:
		return amountRecord(rep, "row", row.RowCode(), "", trialbalance.Amounts{}), nil
	}
}

func amountRecord(rep trialbalance.Report, kind, code, name string, a trialbalance.Amounts) []string {
	record := []string{
		kind,
		code,
		name,
		formatFloat(a.InitialBalance),
		formatFloat(a.Debit),
		formatFloat(a.Credit),
		formatFloat(a.Balance),
		formatFloat(a.EndingBalance),
	}
	if rep.Params.ForeignCurrency {
		record = append(record,
			formatFloat(a.InitialCurrencyBalance),
			formatFloat(a.CurrencyBalance),
			formatFloat(a.EndingCurrencyBalance))
	}
	return record
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
