package pactcontracts

type Pattern struct {
	Kind       string `json:"kind"`
	Expression string `json:"expression"`
	ValueType  string `json:"value_type"`
	Example    string `json:"example"`
}

type Interaction struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

type Verification struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
}
