package domain

// StoreItem is a purchasable entry of the point store.
type StoreItem struct {
	ID          int    `json:"id" mapstructure:"id"`
	Name        string `json:"name" mapstructure:"name"`
	Price       int    `json:"price" mapstructure:"price"`
	Description string `json:"description" mapstructure:"description"`
}

// Persona is a named system prompt and temperature for the assistant.
type Persona struct {
	ID           string  `json:"id" mapstructure:"id"`
	Name         string  `json:"name" mapstructure:"name"`
	SystemPrompt string  `json:"system_prompt" mapstructure:"system_prompt"`
	Temperature  float32 `json:"temperature" mapstructure:"temperature"`
}
