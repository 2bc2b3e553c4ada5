package executors

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/canvasflow/canvasflow/engine"
)

// Deps carries the shared collaborators the builtin executors need.
// Nil fields are tolerated: HTTP executors fall back to a default client
// and the database executor fails per-call when no DB is wired.
type Deps struct {
	DB         *gorm.DB
	HTTPClient *http.Client
}

// RegisterBuiltins installs the reference executors under their canonical
// node types.
func RegisterBuiltins(reg *engine.Registry, deps Deps) {
	reg.Register("transform", Transform())
	reg.Register("branch", Branch())
	reg.Register("delay", Delay())
	reg.Register("http_request", HTTPRequest(deps.HTTPClient))
	reg.Register("database", Database(deps.DB))
	reg.Register("notification", Notification(deps.HTTPClient))
}
