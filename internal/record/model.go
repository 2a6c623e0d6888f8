package record

// Validator receives the full attribute snapshot an update would produce
// and returns the names of the fields it re-validates.
type Validator interface {
	Validate(snapshot Attributes) []string
}

// Model couples a Record with a Validator so every update is validated
// against the snapshot it is about to produce before it is applied.
type Model struct {
	*Record
	validator Validator
}

// NewModel returns a model seeded with initial. Attach a validator before
// the first Update to have changes validated.
func NewModel(initial Attributes) *Model {
	return &Model{Record: New(initial)}
}

// Attach installs the validator consulted by Update.
func (m *Model) Attach(v Validator) {
	m.validator = v
}

// Update validates the merged snapshot and then applies changes. Nil
// values undefine their attribute.
func (m *Model) Update(changes Attributes) []string {
	if len(changes) == 0 {
		return nil
	}
	snapshot := m.Snapshot().Merge(changes)
	if m.validator != nil {
		m.validator.Validate(snapshot)
	}
	return m.SetAll(changes)
}
