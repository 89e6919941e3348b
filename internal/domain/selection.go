package domain

// Selection — выбор пользователя для одной опции в рамках сессии.
// Слои здесь уже эффективные (после подстановки quantity_layers),
// PriceDelta — посчитанная движком наценка с учётом количества.
type Selection struct {
	StepIndex   int       `json:"stepIndex"`
	OptionIndex int       `json:"optionIndex"`
	StepTitle   string    `json:"stepTitle,omitempty"`
	OptionTitle string    `json:"optionTitle,omitempty"`
	PriceType   PriceType `json:"priceType"`
	PriceValue  float64   `json:"priceValue"`
	Layers      []Layer   `json:"layers"`
	Quantity    int       `json:"quantity"`
	CustomValue string    `json:"customValue,omitempty"`
	CustomPrice float64   `json:"customPrice,omitempty"`
	PriceDelta  float64   `json:"priceDelta"`
	Color       string    `json:"color,omitempty"`
}
