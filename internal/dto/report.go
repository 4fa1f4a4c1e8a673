package dto

// ReportLink points at a generated report file. The token authenticates the
// download without a session.
type ReportLink struct {
	ReportID  string `json:"report_id"`
	Format    string `json:"format"`
	File      string `json:"file"`
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}
