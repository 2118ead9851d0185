package pricing

import "math"

type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

type Discount struct {
	Type  DiscountType `json:"type" bson:"type"`
	Value float64      `json:"value" bson:"value"`
}

// TaxConfig and ServiceConfig come from the branch profile. Rates are
// percentages (10 means 10%).
type TaxConfig struct {
	Enabled bool    `json:"enabled" bson:"enabled"`
	Rate    float64 `json:"rate" bson:"rate"`
}

type ServiceConfig struct {
	Enabled bool    `json:"enabled" bson:"enabled"`
	Rate    float64 `json:"rate" bson:"rate"`
}

// Line is a single cart position: unit price in integer currency units and
// a positive quantity.
type Line struct {
	Price    int64
	Quantity int
}

// Breakdown is the monetary result of pricing a cart. All fields are integer
// currency units, rounded half-up.
type Breakdown struct {
	Subtotal      int64 `json:"subtotal" bson:"subtotal"`
	Discount      int64 `json:"discount" bson:"discount"`
	Taxable       int64 `json:"taxable" bson:"taxable"`
	ServiceCharge int64 `json:"service_charge" bson:"service_charge"`
	Tax           int64 `json:"tax" bson:"tax"`
	Total         int64 `json:"total" bson:"total"`
}

// Calculate prices a cart. The sequencing is load-bearing: the discount is
// clamped to the subtotal, the service charge applies to the discounted
// subtotal, and tax applies to the discounted subtotal plus the service
// charge. An empty cart yields a zero breakdown.
func Calculate(lines []Line, d Discount, tax TaxConfig, service ServiceConfig) Breakdown {
	var subtotal int64
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		subtotal += l.Price * int64(l.Quantity)
	}

	var discount float64
	switch d.Type {
	case DiscountPercent:
		discount = float64(subtotal) * d.Value / 100
	case DiscountFixed:
		discount = d.Value
	}
	if discount < 0 {
		discount = 0
	}
	if discount > float64(subtotal) {
		discount = float64(subtotal)
	}

	taxable := float64(subtotal) - discount

	var svc float64
	if service.Enabled {
		svc = taxable * service.Rate / 100
	}

	var taxAmount float64
	if tax.Enabled {
		taxAmount = (taxable + svc) * tax.Rate / 100
	}

	return Breakdown{
		Subtotal:      subtotal,
		Discount:      roundHalfUp(discount),
		Taxable:       roundHalfUp(taxable),
		ServiceCharge: roundHalfUp(svc),
		Tax:           roundHalfUp(taxAmount),
		Total:         roundHalfUp(taxable + svc + taxAmount),
	}
}

func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
