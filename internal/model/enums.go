package model

// Model is a generation backend a user can pick with /model.
type Model string

const (
	ModelLlava Model = "llava"
	ModelPhi   Model = "phi"
)

type ModelChoice struct {
	Model Model
	Label string
}

// ModelChoices is the fixed /model keyboard, in display order.
var ModelChoices = []ModelChoice{
	{Model: ModelLlava, Label: "Llava"},
	{Model: ModelPhi, Label: "Phi-3"},
}

var modelsByData = map[string]Model{
	string(ModelLlava): ModelLlava,
	string(ModelPhi):   ModelPhi,
}

// ParseModel resolves callback data to a selectable backend.
func ParseModel(data string) (Model, bool) {
	m, ok := modelsByData[data]
	return m, ok
}

func (m Model) Label() string {
	for _, c := range ModelChoices {
		if c.Model == m {
			return c.Label
		}
	}
	return string(m)
}
