package build

// Guard holds the cached build key of one session.
//
// Every miss commits the new key before the build runs, so a request whose
// build failed is not attempted again until something in it changes.
type Guard struct {
	key *BuildRequest
}

// NewGuard returns a guard with no cached key.
func NewGuard() *Guard {
	return &Guard{}
}

// ShouldRecompile reports whether req differs from the cached key and, if so,
// makes req the new key.
func (g *Guard) ShouldRecompile(req BuildRequest) bool {
	if g.key != nil && g.key.Equal(req) {
		return false
	}
	key := req.Clone()
	g.key = &key
	return true
}

// Key returns a copy of the cached key, or false if nothing was attempted yet.
func (g *Guard) Key() (BuildRequest, bool) {
	if g.key == nil {
		return BuildRequest{}, false
	}
	return g.key.Clone(), true
}
