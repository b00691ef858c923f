package actor

// Role identifies who is acting on a session. Only HUMAN carries approval,
// signoff and finalize authority.
type Role string

const (
	Human     Role = "HUMAN"
	Assistant Role = "ASSISTANT"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == Human || r == Assistant
}

// IsHuman reports whether r holds human authority.
func (r Role) IsHuman() bool {
	return r == Human
}
