package oauth

// AuthenticationError signals that the caller's authentication is missing,
// stale or rejected by Asana, and that re-running the authorization flow is
// the way out. All provider and transport failures from the token endpoint
// are normalized into this type; raw transport errors never cross the
// package boundary.
type AuthenticationError struct {
	Description string
	Err         error
}

func (e *AuthenticationError) Error() string {
	return e.Description
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// NewAuthenticationError builds an AuthenticationError with a human-readable
// description and no underlying cause.
func NewAuthenticationError(description string) *AuthenticationError {
	return &AuthenticationError{Description: description}
}
