package playground

// Signals are the datastar signals posted by the playground page.
type Signals struct {
	Schema string          `json:"schema"`
	Args   string          `json:"args"`
	Langs  map[string]bool `json:"langs"`

	Code   string `json:"code"`
	Engine string `json:"engine"`
	Lang   string `json:"lang"`
}
