package models

// Session is what a successful login leaves behind.
type Session struct {
	AccountID   ID
	AccessToken string
}

func (s Session) Valid() bool {
	return !s.AccountID.IsZero() && s.AccessToken != ""
}
