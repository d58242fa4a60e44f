package apipaths

// Paths the gateway serves itself. The proxy route table may not claim them.

const (
	Health       = "/api/health"
	AuthLogin    = "/api/auth/login"
	AuthRegister = "/api/auth/register"
	AuthRefresh  = "/api/auth/refresh"
	AuthLogout   = "/api/auth/logout"
	Companies    = "/api/companies"
	CompanyByID  = "/api/companies/:id"
	Drafts       = "/api/drafts"
	DraftByID    = "/api/drafts/:session"
	Uploads      = "/api/uploads/:kind"
	UploadsFiles = "/uploads"
)

// BackendLogin and friends are the backend endpoints behind the auth routes
const (
	BackendLogin    = "/api/auth/login/"
	BackendRegister = "/api/auth/register/"
	BackendLogout   = "/api/auth/logout/"
)

// Reserved lists path prefixes owned by gateway handlers
func Reserved() []string {
	return []string{
		Health,
		AuthLogin,
		AuthRegister,
		AuthRefresh,
		AuthLogout,
		Companies,
		Drafts,
		"/api/uploads",
	}
}
