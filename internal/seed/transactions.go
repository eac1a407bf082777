package seed

import (
	"bytes"
	"fmt"
	"time"

	"github.com/klauspost/compress/gzip"
)

type product struct {
	ID        string
	Name      string
	Category  string
	BasePrice float64
}

var products = []product{
	{"PROD_001", "Enterprise Analytics Platform", "Software", 50000},
	{"PROD_002", "Data Integration Suite", "Software", 25000},
	{"PROD_003", "AI/ML Consulting", "Services", 15000},
	{"PROD_004", "Cloud Migration Service", "Services", 30000},
	{"PROD_005", "Security Audit", "Services", 8000},
	{"PROD_006", "Training Program", "Education", 5000},
	{"PROD_007", "Support Package Premium", "Support", 12000},
	{"PROD_008", "Custom Development", "Services", 75000},
}

var (
	paymentMethods = []string{"Credit Card", "Bank Transfer", "Check", "ACH"}
	statuses       = []string{"Completed", "Pending", "Cancelled", "Refunded"}
	statusWeights  = []float64{0.85, 0.08, 0.04, 0.03}
	channels       = []string{"Online", "Phone", "In-Person", "Partner"}
	sourceSystems  = []string{"CRM", "E-commerce", "Direct Sales"}
)

type transactionMeta struct {
	SourceSystem     string  `json:"source_system"`
	Channel          string  `json:"channel"`
	CampaignID       *string `json:"campaign_id"`
	ProcessingTimeMS int     `json:"processing_time_ms"`
}

type transaction struct {
	ID               string          `json:"transaction_id"`
	CustomerID       string          `json:"customer_id"`
	ProductID        string          `json:"product_id"`
	ProductName      string          `json:"product_name"`
	ProductCategory  string          `json:"product_category"`
	SalesRepID       string          `json:"sales_rep_id"`
	TransactionDate  string          `json:"transaction_date"`
	Quantity         int             `json:"quantity"`
	UnitPrice        float64         `json:"unit_price"`
	DiscountRate     float64         `json:"discount_rate"`
	TotalAmount      float64         `json:"total_amount"`
	PaymentMethod    string          `json:"payment_method"`
	Status           string          `json:"status"`
	CommissionAmount float64         `json:"commission_amount"`
	Metadata         transactionMeta `json:"metadata"`
}

func (g *generator) transactions(n, customers int) []transaction {
	if customers < 1 {
		customers = 1
	}
	out := make([]transaction, 0, n)
	for i := 0; i < n; i++ {
		p := products[g.rng.IntN(len(products))]
		quantity := 1 + g.rng.IntN(4)
		discount := round(g.rng.Float64()*0.3*g.rng.Float64(), 4)
		unit := p.BasePrice * (1 - discount)
		total := unit * float64(quantity)
		status := g.weighted(statuses, statusWeights)

		rate := 0.08
		if p.Category == "Software" {
			rate = 0.05
		}
		commission := 0.0
		if status == "Completed" {
			commission = total * rate
		}

		meta := transactionMeta{
			SourceSystem:     g.pick(sourceSystems),
			Channel:          g.pick(channels),
			ProcessingTimeMS: 50 + g.rng.IntN(1951),
		}
		if g.rng.Float64() < 0.4 {
			id := fmt.Sprintf("CAMP_%03d", 1+g.rng.IntN(100))
			meta.CampaignID = &id
		}

		when := g.now.Add(-time.Duration(g.rng.Int64N(int64(2 * 365 * 24 * time.Hour))))
		out = append(out, transaction{
			ID:               fmt.Sprintf("TXN_%08d", i+1),
			CustomerID:       fmt.Sprintf("CUST_%06d", 1+g.rng.IntN(customers)),
			ProductID:        p.ID,
			ProductName:      p.Name,
			ProductCategory:  p.Category,
			SalesRepID:       fmt.Sprintf("REP_%03d", 1+g.rng.IntN(50)),
			TransactionDate:  when.Truncate(time.Second).Format("2006-01-02T15:04:05"),
			Quantity:         quantity,
			UnitPrice:        round(unit, 2),
			DiscountRate:     discount,
			TotalAmount:      round(total, 2),
			PaymentMethod:    g.pick(paymentMethods),
			Status:           status,
			CommissionAmount: round(commission, 2),
			Metadata:         meta,
		})
	}
	return out
}

type transactionDocument struct {
	Metadata     datasetInfo   `json:"metadata"`
	Transactions []transaction `json:"transactions"`
}

type datasetInfo struct {
	DatasetName   string `json:"dataset_name"`
	Version       string `json:"version"`
	GeneratedDate string `json:"generated_date"`
	RecordCount   int    `json:"record_count"`
	Description   string `json:"description"`
}

// encodeTransactions writes the object-shaped document: dataset info
// followed by the transaction array.
func encodeTransactions(rows []transaction, now time.Time) ([]byte, error) {
	return json.MarshalIndent(transactionDocument{
		Metadata: datasetInfo{
			DatasetName:   "sales_transactions",
			Version:       "2.1.0",
			GeneratedDate: now.Format("2006-01-02T15:04:05"),
			RecordCount:   len(rows),
			Description:   "Sales transaction dataset for analytics and reporting",
		},
		Transactions: rows,
	}, "", "  ")
}

// encodeTransactionLines writes one transaction per line, gzip-compressed.
func encodeTransactionLines(rows []transaction) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	stream := json.BorrowStream(zw)
	defer json.ReturnStream(stream)

	for _, t := range rows {
		stream.WriteVal(t)
		stream.WriteRaw("\n")
		if stream.Error != nil {
			return nil, stream.Error
		}
	}
	if err := stream.Flush(); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
