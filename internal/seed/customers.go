package seed

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
)

var (
	segments       = []string{"Premium", "Standard", "Basic", "Enterprise"}
	segmentWeights = []float64{0.15, 0.35, 0.35, 0.15}
	regions        = []string{"North America", "Europe", "Asia Pacific", "Latin America", "Middle East & Africa"}
	regionWeights  = []float64{0.3, 0.25, 0.2, 0.15, 0.1}
	industries     = []string{"Technology", "Healthcare", "Finance", "Retail", "Manufacturing", "Education", "Government"}
	companyStems   = []string{"Acme", "Globex", "Initech", "Umbrella", "Stark", "Wayne", "Hooli", "Vandelay", "Soylent", "Tyrell"}
	companyKinds   = []string{"Labs", "Systems", "Holdings", "Group", "Partners", "Industries"}
)

// revenueMedian is the typical annual revenue of a segment.
var revenueMedian = map[string]float64{
	"Enterprise": 3_000_000,
	"Premium":    450_000,
	"Standard":   60_000,
	"Basic":      8_000,
}

type customer struct {
	ID             string
	Company        string
	Segment        string
	Region         string
	Industry       string
	AnnualRevenue  float64
	Employees      int
	Satisfaction   float64
	ChurnRisk      float64
	MonthlySpend   float64
	SupportTickets int
	SignupDate     string
	Email          string
}

var customerHeader = []string{
	"customer_id", "company_name", "segment", "region", "industry",
	"annual_revenue", "employees", "satisfaction_score", "churn_risk_score",
	"monthly_spend", "support_tickets_last_month", "signup_date", "contact_email",
}

func (g *generator) customers(n int) []customer {
	out := make([]customer, 0, n)
	for i := 0; i < n; i++ {
		segment := g.weighted(segments, segmentWeights)
		company := g.pick(companyStems) + " " + g.pick(companyKinds)
		revenue := revenueMedian[segment] * math.Exp(g.rng.NormFloat64()*0.6)
		tickets := g.rng.IntN(3)
		if segment == "Premium" || segment == "Enterprise" {
			tickets++
		}

		out = append(out, customer{
			ID:             fmt.Sprintf("CUST_%06d", i+1),
			Company:        company,
			Segment:        segment,
			Region:         g.weighted(regions, regionWeights),
			Industry:       g.pick(industries),
			AnnualRevenue:  round(revenue, 2),
			Employees:      1 + int(math.Exp(4+g.rng.NormFloat64())),
			Satisfaction:   round(g.between(5, 10), 2),
			ChurnRisk:      round(g.rng.Float64()*0.4, 3),
			MonthlySpend:   round(revenue/12*g.between(0.8, 1.2), 2),
			SupportTickets: tickets,
			SignupDate:     g.daysAgo(3 * 365).Format("2006-01-02"),
			Email:          fmt.Sprintf("contact%d@%s.example", i+1, companySlug(company)),
		})
	}
	return out
}

func companySlug(company string) string {
	var b []byte
	for _, r := range company {
		switch {
		case r >= 'A' && r <= 'Z':
			b = append(b, byte(r-'A'+'a'))
		case r >= 'a' && r <= 'z':
			b = append(b, byte(r))
		}
	}
	return string(b)
}

func encodeCustomers(rows []customer) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(customerHeader); err != nil {
		return nil, err
	}
	for _, c := range rows {
		record := []string{
			c.ID, c.Company, c.Segment, c.Region, c.Industry,
			formatFloat(c.AnnualRevenue), strconv.Itoa(c.Employees),
			formatFloat(c.Satisfaction), formatFloat(c.ChurnRisk),
			formatFloat(c.MonthlySpend), strconv.Itoa(c.SupportTickets),
			c.SignupDate, c.Email,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
