package dto

// Validatable is implemented by every request type. The server's Wrap
// functions use it as a type constraint.
type Validatable interface {
	Validate() error
}
