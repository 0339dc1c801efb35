package entity

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// RoleReport is the diagnostic outcome for one role.
type RoleReport struct {
	Role       Role
	Found      bool
	Locator    Locator
	Text       string
	Screenshot *Screenshot
}
