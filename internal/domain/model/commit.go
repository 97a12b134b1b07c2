package model

// Commit identifies the head revision a classification pass ran against.
type Commit struct {
	SHA     string
	Message string
}

// ShortSHA returns the abbreviated commit identifier used in titles and logs.
func (c Commit) ShortSHA() string {
	if len(c.SHA) <= 8 {
		return c.SHA
	}
	return c.SHA[:8]
}
