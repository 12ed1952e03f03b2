package httpapi

import (
	"database/sql"
	"net/http"
)

// NewMux returns a mux with the health check registered. Feature modules add
// their own routes with RegisterFeature.
func NewMux(db *sql.DB) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, db)
	return mux
}
