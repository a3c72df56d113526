package cryptofolio

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// this file contains functions to handle the import/export formats.
// Both stay human readable and lossless with respect to ledger content:
// exporting and re-importing the transactions into a fresh ledger reproduces
// identical holdings after recompute.

// ExportFormat selects the serialization of an export.
type ExportFormat string

const (
	// FormatJSON is a single structured JSON document with holdings,
	// analytics, transactions and watchlist.
	FormatJSON ExportFormat = "json"
	// FormatCSV is a flat transaction table.
	FormatCSV ExportFormat = "csv"
)

// ParseExportFormat parses a string into an ExportFormat.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(s)) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown export format: %q", s)
	}
}

// ExportDocument is the structured export of a user's portfolio.
type ExportDocument struct {
	UserID       string           `json:"user_id"`
	ExportedAt   time.Time        `json:"exported_at"`
	Holdings     []Holding        `json:"holdings"`
	Analytics    *Analytics       `json:"analytics,omitempty"`
	Transactions []Transaction    `json:"transactions"`
	Watchlist    []WatchlistEntry `json:"watchlist,omitempty"`
}

// Export serializes the user's portfolio to w in the requested format. The
// CSV format carries only the transaction table; the ledger content is the
// lossless part either way.
func (s *Service) Export(ctx context.Context, userID string, format ExportFormat, w io.Writer) error {
	txs, err := s.ledger.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("reading ledger for export: %w", err)
	}

	if format == FormatCSV {
		return WriteTransactionsCSV(w, txs)
	}

	sum, err := s.Summary(ctx, userID)
	if err != nil {
		return err
	}
	watchlist, err := s.Watchlist(ctx, userID)
	if err != nil {
		return err
	}
	doc := ExportDocument{
		UserID:       userID,
		ExportedAt:   time.Now(),
		Holdings:     sum.Holdings,
		Analytics:    ComputeAnalytics(sum.Holdings),
		Transactions: txs,
		Watchlist:    watchlist,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// Import reads transactions from r (a structured JSON export or a flat CSV
// table), appends them to the user's ledger and recomputes every affected
// holding. Each imported transaction is validated; the first invalid row
// aborts the import before any ledger mutation.
func (s *Service) Import(ctx context.Context, userID string, format ExportFormat, r io.Reader) (int, error) {
	var txs []Transaction
	var err error
	switch format {
	case FormatCSV:
		txs, err = ReadTransactionsCSV(r)
	default:
		var doc ExportDocument
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return 0, fmt.Errorf("cannot parse export document: %w", err)
		}
		txs = doc.Transactions
	}
	if err != nil {
		return 0, err
	}

	for i := range txs {
		txs[i].UserID = userID
		txs[i].ID = 0 // the store assigns fresh ids
		if err := txs[i].Validate(); err != nil {
			return 0, fmt.Errorf("imported transaction %d: %w", i+1, err)
		}
	}

	coins := make(map[string]bool)
	for _, tx := range txs {
		if _, err := s.ledger.Append(ctx, tx); err != nil {
			return 0, fmt.Errorf("appending imported transaction: %w", err)
		}
		coins[tx.CoinID] = true
	}
	for coin := range coins {
		if err := s.recompute(ctx, userID, coin); err != nil {
			return 0, err
		}
	}
	return len(txs), nil
}

var csvHeader = []string{
	"id", "user_id", "coin_id", "coin_symbol", "coin_name", "kind",
	"quantity", "unit_price", "total_paid", "fee",
	"exchange", "notes", "occurred_at", "recorded_at",
}

// WriteTransactionsCSV writes the flat transaction table.
func WriteTransactionsCSV(w io.Writer, txs []Transaction) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, tx := range txs {
		record := []string{
			strconv.FormatInt(tx.ID, 10),
			tx.UserID,
			tx.CoinID,
			tx.CoinSymbol,
			tx.CoinName,
			string(tx.Kind),
			tx.Quantity.String(),
			tx.UnitPrice.String(),
			tx.TotalPaid.String(),
			tx.Fee.String(),
			tx.Exchange,
			tx.Notes,
			tx.OccurredAt.Format(time.RFC3339Nano),
			tx.RecordedAt.Format(time.RFC3339Nano),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTransactionsCSV parses a flat transaction table written by
// WriteTransactionsCSV.
func ReadTransactionsCSV(r io.Reader) ([]Transaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cannot parse transaction table: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var txs []Transaction
	for i, rec := range records[1:] {
		tx, err := transactionFromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func transactionFromRecord(rec []string) (Transaction, error) {
	var tx Transaction
	var err error
	if tx.ID, err = strconv.ParseInt(rec[0], 10, 64); err != nil {
		return tx, fmt.Errorf("bad id %q: %w", rec[0], err)
	}
	tx.UserID, tx.CoinID, tx.CoinSymbol, tx.CoinName = rec[1], rec[2], rec[3], rec[4]
	if tx.Kind, err = ParseKind(rec[5]); err != nil {
		return tx, err
	}
	fields := []struct {
		name string
		dst  *decimal.Decimal
		raw  string
	}{
		{"quantity", &tx.Quantity, rec[6]},
		{"unit_price", &tx.UnitPrice, rec[7]},
		{"total_paid", &tx.TotalPaid, rec[8]},
		{"fee", &tx.Fee, rec[9]},
	}
	for _, f := range fields {
		if *f.dst, err = decimal.NewFromString(f.raw); err != nil {
			return tx, fmt.Errorf("bad %s %q: %w", f.name, f.raw, err)
		}
	}
	tx.Exchange, tx.Notes = rec[10], rec[11]
	if tx.OccurredAt, err = time.Parse(time.RFC3339Nano, rec[12]); err != nil {
		return tx, fmt.Errorf("bad occurred_at %q: %w", rec[12], err)
	}
	if tx.RecordedAt, err = time.Parse(time.RFC3339Nano, rec[13]); err != nil {
		return tx, fmt.Errorf("bad recorded_at %q: %w", rec[13], err)
	}
	return tx, nil
}

// EncodeTransactions writes transactions to w in the ledger file format, one
// JSON object per line.
func EncodeTransactions(w io.Writer, txs []Transaction) error {
	enc := json.NewEncoder(w)
	for _, tx := range txs {
		if err := enc.Encode(tx); err != nil {
			return fmt.Errorf("encoding transaction %d: %w", tx.ID, err)
		}
	}
	return nil
}

// DecodeTransactions reads a JSONL ledger file written by EncodeTransactions.
// Blank lines are skipped.
func DecodeTransactions(r io.Reader) ([]Transaction, error) {
	var txs []Transaction
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var tx Transaction
		if err := json.Unmarshal([]byte(line), &tx); err != nil {
			return nil, fmt.Errorf("cannot parse ledger line %q: %w", line, err)
		}
		txs = append(txs, tx)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}
