package model

// Principal is the identity behind a request. Three states matter to
// authorization:
//
//	nil                  absent/misconfigured credentials context
//	&Principal{}         anonymous (no bearer token presented)
//	&Principal{User: u}  authenticated as u
//
// It is passed explicitly down the handler/service call chain; there is
// no ambient "current user".
type Principal struct {
	User *User
}

// Anonymous returns the unauthenticated principal.
func Anonymous() *Principal { return &Principal{} }

// Authenticated reports whether the principal resolved to a user.
func (p *Principal) Authenticated() bool {
	return p != nil && p.User != nil
}
