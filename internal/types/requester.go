package types

// Requester identifies the caller of a service method. The zero value is
// the anonymous requester.
type Requester struct {
	UserID uint
}

// Anonymous is the requester for unauthenticated calls
var Anonymous = Requester{}

// AsUser returns the requester for an authenticated user
func AsUser(id uint) Requester {
	return Requester{UserID: id}
}

// IsAnonymous reports whether the call carries no authenticated identity
func (r Requester) IsAnonymous() bool {
	return r.UserID == 0
}
