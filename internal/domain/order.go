package domain

// Order is the subset of an order-created webhook payload the renderer reads.
type Order struct {
	ID          int64           `json:"id"`
	OrderNumber int64           `json:"order_number"`
	Note        string          `json:"note"`
	LineItems   []OrderLineItem `json:"line_items"`
}

type OrderLineItem struct {
	ID         int64           `json:"id"`
	Title      string          `json:"title"`
	Quantity   int             `json:"quantity"`
	Properties []OrderProperty `json:"properties"`
}

type OrderProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Property returns the value of the named property.
func (l OrderLineItem) Property(name string) (string, bool) {
	for _, p := range l.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}
