package assistant

import "github.com/fastygo/taskpoints/domain"

// DefaultPersonas are used when the catalog file defines none.
func DefaultPersonas() []domain.Persona {
	return []domain.Persona{
		{
			ID:           "default",
			Name:         "Default assistant",
			SystemPrompt: "You are a professional task planning assistant who helps the user create, modify and track tasks.",
			Temperature:  0.3,
		},
		{
			ID:           "cat",
			Name:         "Cute cat",
			SystemPrompt: "You are a cute cat girl who helps the user plan tasks in a light and humorous tone. Emoji are welcome.",
			Temperature:  0.1,
		},
		{
			ID:           "friendly",
			Name:         "Friendly partner",
			SystemPrompt: "You are a friendly partner who helps the user plan tasks in a light and humorous tone. Emoji are welcome.",
			Temperature:  0.5,
		},
		{
			ID:           "analyst",
			Name:         "Data analyst",
			SystemPrompt: "You are a data analysis expert focused on time efficiency, resource optimisation and risk assessment of tasks.",
			Temperature:  0.2,
		},
	}
}

// Personas is an immutable, ordered persona registry.
type Personas struct {
	list []domain.Persona
}

// NewPersonas falls back to DefaultPersonas for an empty list.
func NewPersonas(list []domain.Persona) *Personas {
	if len(list) == 0 {
		list = DefaultPersonas()
	}
	return &Personas{list: append([]domain.Persona(nil), list...)}
}

func (p *Personas) Get(id string) (domain.Persona, bool) {
	for _, persona := range p.list {
		if persona.ID == id {
			return persona, true
		}
	}
	return domain.Persona{}, false
}

// Resolve returns the persona with id, or the first one.
func (p *Personas) Resolve(id string) domain.Persona {
	if persona, ok := p.Get(id); ok {
		return persona
	}
	return p.list[0]
}

func (p *Personas) List() []domain.Persona {
	return append([]domain.Persona(nil), p.list...)
}
